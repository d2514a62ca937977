// Package replay drives the engine's command surface from a
// newline-delimited JSON log: one line per command, processed strictly in
// file order, each line timestamped independently of when it is read
// (spec.md §5's "deterministic under replay" property). Grounded on the
// teacher's streaming ingestion style in internal/results/integration.go,
// adapted from "store one row per finished test" to "dispatch one command
// per line."
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/shelfworks/shelfengine/pkg/types"
)

var validate = validator.New()

// Engine is the subset of *engine.Engine the replayer dispatches against.
// Declared locally so this package depends only on pkg/types, not on
// internal/engine's full surface.
type Engine interface {
	IngestRFIDRead(types.IngestRFIDReadCmd) types.Result
	ForceZoneSweep(types.ForceZoneSweepCmd) types.Result
	IngestSalesEvent(types.IngestSalesEventCmd) types.Result
	AddCustomerItem(types.AddCustomerItemCmd) types.Result
	RemoveCustomerItem(types.RemoveCustomerItemCmd) types.Result
	CheckoutCustomer(types.CheckoutCustomerCmd) types.Result
	UpsertRuleTemplate(types.UpsertRuleTemplateCmd) types.Result
	DeleteRuleTemplate(types.DeleteRuleTemplateCmd) types.Result
	AssignTask(types.AssignTaskCmd) types.Result
	StartTask(types.StartTaskCmd) types.Result
	ConfirmTask(types.ConfirmTaskCmd) types.Result
	CreateReceivingOrder(types.CreateReceivingOrderCmd) types.Result
	ConfirmReceivingOrder(types.ConfirmReceivingOrderCmd) types.Result
	UpsertLocation(types.UpsertLocationCmd) types.Result
	DeleteLocationSource(types.DeleteLocationSourceCmd) types.Result
	UpsertStaff(types.UpsertStaffCmd) types.Result
	RegisterEPCMapping(types.RegisterEPCMappingCmd) types.Result
}

// envelope is one line of the command log: a type discriminator plus the
// raw command payload, decoded once the type is known.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Outcome records one dispatched line's result, for the CLI to print or
// tally.
type Outcome struct {
	Line   int
	Type   string
	Result types.Result
	Err    error
}

// Run reads NDJSON commands from r and dispatches each to e in order,
// invoking onOutcome after every line (including lines that failed to
// parse). It stops and returns an error only on I/O failure; malformed or
// rejected individual lines are reported through onOutcome and replay
// continues, matching the CLI's "never let one bad line abort the whole
// log" posture.
func Run(e Engine, r io.Reader, onOutcome func(Outcome)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			onOutcome(Outcome{Line: line, Err: errors.Wrapf(err, "line %d: decode envelope", line)})
			continue
		}

		res, err := dispatch(e, env)
		onOutcome(Outcome{Line: line, Type: env.Type, Result: res, Err: err})
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read replay log")
	}
	return nil
}

func dispatch(e Engine, env envelope) (types.Result, error) {
	decode := func(v interface{}) error {
		if err := json.Unmarshal(env.Payload, v); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		if err := validate.Struct(v); err != nil {
			return fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
		return nil
	}

	switch env.Type {
	case "ingestRFIDRead":
		var cmd types.IngestRFIDReadCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.IngestRFIDRead(cmd), nil
	case "forceZoneSweep":
		var cmd types.ForceZoneSweepCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.ForceZoneSweep(cmd), nil
	case "ingestSalesEvent":
		var cmd types.IngestSalesEventCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.IngestSalesEvent(cmd), nil
	case "addCustomerItem":
		var cmd types.AddCustomerItemCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.AddCustomerItem(cmd), nil
	case "removeCustomerItem":
		var cmd types.RemoveCustomerItemCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.RemoveCustomerItem(cmd), nil
	case "checkoutCustomer":
		var cmd types.CheckoutCustomerCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.CheckoutCustomer(cmd), nil
	case "upsertRuleTemplate":
		var cmd types.UpsertRuleTemplateCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.UpsertRuleTemplate(cmd), nil
	case "deleteRuleTemplate":
		var cmd types.DeleteRuleTemplateCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.DeleteRuleTemplate(cmd), nil
	case "assignTask":
		var cmd types.AssignTaskCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.AssignTask(cmd), nil
	case "startTask":
		var cmd types.StartTaskCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.StartTask(cmd), nil
	case "confirmTask":
		var cmd types.ConfirmTaskCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.ConfirmTask(cmd), nil
	case "createReceivingOrder":
		var cmd types.CreateReceivingOrderCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.CreateReceivingOrder(cmd), nil
	case "confirmReceivingOrder":
		var cmd types.ConfirmReceivingOrderCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.ConfirmReceivingOrder(cmd), nil
	case "upsertLocation":
		var cmd types.UpsertLocationCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.UpsertLocation(cmd), nil
	case "deleteLocationSource":
		var cmd types.DeleteLocationSourceCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.DeleteLocationSource(cmd), nil
	case "upsertStaff":
		var cmd types.UpsertStaffCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.UpsertStaff(cmd), nil
	case "registerEPCMapping":
		var cmd types.RegisterEPCMappingCmd
		if err := decode(&cmd); err != nil {
			return types.Result{}, err
		}
		return e.RegisterEPCMapping(cmd), nil
	default:
		return types.Result{}, fmt.Errorf("unknown command type %q", env.Type)
	}
}
