package replay

import (
	"strings"
	"testing"

	"github.com/shelfworks/shelfengine/pkg/types"
)

// fakeEngine records which method was called with what payload, returning a
// canned Result set by the test.
type fakeEngine struct {
	calls []string
	next  types.Result
}

func (f *fakeEngine) record(name string) types.Result {
	f.calls = append(f.calls, name)
	return f.next
}

func (f *fakeEngine) IngestRFIDRead(types.IngestRFIDReadCmd) types.Result { return f.record("IngestRFIDRead") }
func (f *fakeEngine) ForceZoneSweep(types.ForceZoneSweepCmd) types.Result { return f.record("ForceZoneSweep") }
func (f *fakeEngine) IngestSalesEvent(types.IngestSalesEventCmd) types.Result {
	return f.record("IngestSalesEvent")
}
func (f *fakeEngine) AddCustomerItem(types.AddCustomerItemCmd) types.Result {
	return f.record("AddCustomerItem")
}
func (f *fakeEngine) RemoveCustomerItem(types.RemoveCustomerItemCmd) types.Result {
	return f.record("RemoveCustomerItem")
}
func (f *fakeEngine) CheckoutCustomer(types.CheckoutCustomerCmd) types.Result {
	return f.record("CheckoutCustomer")
}
func (f *fakeEngine) UpsertRuleTemplate(types.UpsertRuleTemplateCmd) types.Result {
	return f.record("UpsertRuleTemplate")
}
func (f *fakeEngine) DeleteRuleTemplate(types.DeleteRuleTemplateCmd) types.Result {
	return f.record("DeleteRuleTemplate")
}
func (f *fakeEngine) AssignTask(types.AssignTaskCmd) types.Result   { return f.record("AssignTask") }
func (f *fakeEngine) StartTask(types.StartTaskCmd) types.Result     { return f.record("StartTask") }
func (f *fakeEngine) ConfirmTask(types.ConfirmTaskCmd) types.Result { return f.record("ConfirmTask") }
func (f *fakeEngine) CreateReceivingOrder(types.CreateReceivingOrderCmd) types.Result {
	return f.record("CreateReceivingOrder")
}
func (f *fakeEngine) ConfirmReceivingOrder(types.ConfirmReceivingOrderCmd) types.Result {
	return f.record("ConfirmReceivingOrder")
}
func (f *fakeEngine) UpsertLocation(types.UpsertLocationCmd) types.Result {
	return f.record("UpsertLocation")
}
func (f *fakeEngine) DeleteLocationSource(types.DeleteLocationSourceCmd) types.Result {
	return f.record("DeleteLocationSource")
}
func (f *fakeEngine) UpsertStaff(types.UpsertStaffCmd) types.Result { return f.record("UpsertStaff") }
func (f *fakeEngine) RegisterEPCMapping(types.RegisterEPCMappingCmd) types.Result {
	return f.record("RegisterEPCMapping")
}

func TestRunDispatchesKnownCommand(t *testing.T) {
	f := &fakeEngine{next: types.Result{Status: types.StatusAccepted}}
	log := `{"type":"ingestRFIDRead","payload":{"epc":"E1","antennaId":"a1","locationId":"loc1","timestamp":"2026-01-01T00:00:00Z"}}` + "\n"

	var outcomes []Outcome
	err := Run(f, strings.NewReader(log), func(o Outcome) { outcomes = append(outcomes, o) })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected one outcome, got %d", len(outcomes))
	}
	if outcomes[0].Err != nil {
		t.Fatalf("expected no dispatch error, got %v", outcomes[0].Err)
	}
	if outcomes[0].Result.Status != types.StatusAccepted {
		t.Fatalf("expected accepted, got %s", outcomes[0].Result.Status)
	}
	if len(f.calls) != 1 || f.calls[0] != "IngestRFIDRead" {
		t.Fatalf("expected IngestRFIDRead to be invoked, got %v", f.calls)
	}
}

func TestRunUnknownCommandType(t *testing.T) {
	f := &fakeEngine{next: types.Result{Status: types.StatusAccepted}}
	log := `{"type":"doesNotExist","payload":{}}` + "\n"

	var outcomes []Outcome
	if err := Run(f, strings.NewReader(log), func(o Outcome) { outcomes = append(outcomes, o) }); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Err == nil {
		t.Fatalf("expected an error outcome for an unknown command type, got %+v", outcomes)
	}
	if len(f.calls) != 0 {
		t.Fatalf("expected no engine calls, got %v", f.calls)
	}
}

func TestRunMalformedLineDoesNotAbortReplay(t *testing.T) {
	f := &fakeEngine{next: types.Result{Status: types.StatusAccepted}}
	log := "not json at all\n" +
		`{"type":"forceZoneSweep","payload":{"locationId":"loc1","timestamp":"2026-01-01T00:00:00Z"}}` + "\n"

	var outcomes []Outcome
	if err := Run(f, strings.NewReader(log), func(o Outcome) { outcomes = append(outcomes, o) }); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected two outcomes (one failed, one dispatched), got %d", len(outcomes))
	}
	if outcomes[0].Err == nil {
		t.Fatalf("expected the first line to fail to decode")
	}
	if outcomes[1].Err != nil {
		t.Fatalf("expected the second line to dispatch despite the first failing: %v", outcomes[1].Err)
	}
	if len(f.calls) != 1 || f.calls[0] != "ForceZoneSweep" {
		t.Fatalf("expected ForceZoneSweep to still run, got %v", f.calls)
	}
}

func TestRunInvalidPayloadFailsValidation(t *testing.T) {
	f := &fakeEngine{next: types.Result{Status: types.StatusAccepted}}
	// Missing the required antennaId/timestamp fields.
	log := `{"type":"ingestRFIDRead","payload":{"epc":"E1"}}` + "\n"

	var outcomes []Outcome
	if err := Run(f, strings.NewReader(log), func(o Outcome) { outcomes = append(outcomes, o) }); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Err == nil {
		t.Fatalf("expected a validation error, got %+v", outcomes)
	}
	if len(f.calls) != 0 {
		t.Fatalf("expected the engine not to be called on invalid payload, got %v", f.calls)
	}
}

func TestRunBlankLinesAreSkipped(t *testing.T) {
	f := &fakeEngine{next: types.Result{Status: types.StatusAccepted}}
	log := "\n\n" + `{"type":"forceZoneSweep","payload":{"locationId":"loc1","timestamp":"2026-01-01T00:00:00Z"}}` + "\n\n"

	var outcomes []Outcome
	if err := Run(f, strings.NewReader(log), func(o Outcome) { outcomes = append(outcomes, o) }); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected blank lines to produce no outcome, got %d", len(outcomes))
	}
}
