package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"terratip_backend/internal/events"
	"terratip_backend/internal/leads/cache"
	"terratip_backend/internal/leads/domain"
	"terratip_backend/internal/leads/repository"
	"terratip_backend/internal/leads/resolver"
	"terratip_backend/internal/leads/transport"
	"terratip_backend/internal/store"
	"terratip_backend/platform/apperr"
	"terratip_backend/platform/logger"
	"terratip_backend/platform/phone"
)

const testSheet = "leads"

var (
	manager = domain.Viewer{Username: "boss", DisplayName: "The Boss", Manager: true}
	agent   = domain.Viewer{Username: "ravi", DisplayName: "Ravi Kumar"}
)

type staticAgents struct{ names []string }

func (a staticAgents) ListAgentNames(context.Context) ([]string, error) {
	return a.names, nil
}

func newTestService(t *testing.T, agents AgentDirectory) (*Service, *store.Memory) {
	t.Helper()

	log := logger.New("development")
	mem := store.NewMemory(domain.ColPhone, phone.NaturalKey)
	if err := mem.CreateSheet(context.Background(), testSheet, domain.Header); err != nil {
		t.Fatalf("CreateSheet: %v", err)
	}

	repo := repository.New(mem, testSheet)
	res := resolver.New(mem, testSheet, log).WithRetryDelay(time.Millisecond)
	var snapshot *cache.Snapshot // nil cache: every read hits the store

	svc := New(repo, res, snapshot, events.NewInMemoryBus(log), nil, agents, "91", 0, log).
		WithClock(func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) })
	return svc, mem
}

func createLead(t *testing.T, svc *Service, name, phoneNumber, status, followUp, assignedTo string) {
	t.Helper()
	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:         name,
		Phone:        phoneNumber,
		Status:       status,
		FollowUpDate: followUp,
		AssignedTo:   assignedTo,
	}, manager)
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
}

func TestCreateRejectsDuplicatePhone(t *testing.T) {
	svc, _ := newTestService(t, nil)

	createLead(t, svc, "Asha", "+91 98765 43210", "", "", "")

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:  "Asha again",
		Phone: "098765-43210", // same last 10 digits
	}, manager)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateDefaults(t *testing.T) {
	svc, _ := newTestService(t, nil)

	view, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:  "Asha",
		Phone: "9876543210",
	}, agent)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if view.Status != "New" {
		t.Fatalf("status = %q, want New", view.Status)
	}
	if view.AssignedTo != "Ravi Kumar" {
		t.Fatalf("assignee = %q, want creator", view.AssignedTo)
	}
	if view.Bucket != domain.BucketAction {
		t.Fatalf("new lead should land in action, got %q", view.Bucket)
	}
}

func TestQueuesGroupAndOrder(t *testing.T) {
	svc, _ := newTestService(t, nil)

	createLead(t, svc, "Overdue", "1111111111", "Call Done", "2024-01-05", "ravi")
	createLead(t, svc, "DueToday", "2222222222", "Call Done", "2024-01-10", "ravi")
	createLead(t, svc, "Fresh", "3333333333", "New", "", "ravi")
	createLead(t, svc, "LaterB", "4444444444", "Call Done", "2024-02-01", "ravi")
	createLead(t, svc, "LaterA", "5555555555", "Call Done", "2024-01-15", "ravi")
	createLead(t, svc, "Gone", "6666666666", "Lost", "", "ravi")
	createLead(t, svc, "Done", "7777777777", "Sold", "", "ravi")

	queues, err := svc.Queues(context.Background(), manager)
	if err != nil {
		t.Fatalf("Queues: %v", err)
	}

	wantAction := []string{"Overdue", "DueToday", "Fresh"}
	if len(queues.Action) != len(wantAction) {
		t.Fatalf("action queue size = %d, want %d", len(queues.Action), len(wantAction))
	}
	for i, want := range wantAction {
		if queues.Action[i].Name != want {
			t.Fatalf("action[%d] = %q, want %q", i, queues.Action[i].Name, want)
		}
	}

	if len(queues.Future) != 2 || queues.Future[0].Name != "LaterA" || queues.Future[1].Name != "LaterB" {
		t.Fatalf("future queue wrong: %+v", queues.Future)
	}
	if len(queues.Recycle) != 1 || queues.Recycle[0].Name != "Gone" {
		t.Fatalf("recycle queue wrong: %+v", queues.Recycle)
	}
	if len(queues.Closed) != 1 || queues.Closed[0].Name != "Done" {
		t.Fatalf("closed queue wrong: %+v", queues.Closed)
	}
}

func TestQueuesVisibility(t *testing.T) {
	svc, _ := newTestService(t, nil)

	createLead(t, svc, "Mine", "1111111111", "New", "", "ravi")
	createLead(t, svc, "ByDisplayName", "2222222222", "New", "", "Ravi Kumar")
	createLead(t, svc, "Shared", "3333333333", "New", "", "ALL")
	createLead(t, svc, "Theirs", "4444444444", "New", "", "priya")

	queues, err := svc.Queues(context.Background(), agent)
	if err != nil {
		t.Fatalf("Queues: %v", err)
	}
	if len(queues.Action) != 3 {
		t.Fatalf("agent should see 3 leads, got %d", len(queues.Action))
	}

	all, err := svc.Queues(context.Background(), manager)
	if err != nil {
		t.Fatalf("Queues: %v", err)
	}
	if len(all.Action) != 4 {
		t.Fatalf("manager should see 4 leads, got %d", len(all.Action))
	}
}

func TestUpdateForbiddenForInvisibleLead(t *testing.T) {
	svc, _ := newTestService(t, nil)

	createLead(t, svc, "Theirs", "1111111111", "New", "", "priya")

	status := "Call Done"
	_, err := svc.Update(context.Background(), "1111111111", transport.UpdateLeadRequest{Status: &status}, agent)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateReassignRequiresManager(t *testing.T) {
	svc, _ := newTestService(t, nil)

	createLead(t, svc, "Mine", "1111111111", "New", "", "ravi")

	other := "priya"
	_, err := svc.Update(context.Background(), "1111111111", transport.UpdateLeadRequest{AssignedTo: &other}, agent)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	view, err := svc.Update(context.Background(), "1111111111", transport.UpdateLeadRequest{AssignedTo: &other}, manager)
	if err != nil {
		t.Fatalf("manager reassign: %v", err)
	}
	if view.AssignedTo != "priya" {
		t.Fatalf("assignee = %q, want priya", view.AssignedTo)
	}
}

func TestImportReport(t *testing.T) {
	svc, _ := newTestService(t, staticAgents{names: []string{"ravi", "priya"}})

	createLead(t, svc, "Existing", "9876543210", "New", "", "ravi")

	csvData := "Name,Phone\n" +
		"Fresh One,9000000001\n" +
		"Fresh Two,9000000002\n" +
		"Dup Of Existing,+91 98765 43210\n" +
		"In Batch,9000000001\n" +
		"Short Number,12345\n" +
		"No Phone,\n"

	report, err := svc.Import(context.Background(), []byte(csvData), "upload.csv", nil, manager)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if report.Added != 2 || report.Duplicates != 2 || report.Malformed != 2 {
		t.Fatalf("report = %+v, want 2 added, 2 duplicates, 2 malformed", report)
	}
}

func TestImportRoundRobinAssignment(t *testing.T) {
	svc, _ := newTestService(t, staticAgents{names: []string{"a", "b", "c"}})

	var csvData = "Name,Phone\n"
	numbers := []string{
		"9000000001", "9000000002", "9000000003", "9000000004", "9000000005",
		"9000000006", "9000000007", "9000000008", "9000000009", "9000000010",
	}
	for _, n := range numbers {
		csvData += "Lead," + n + "\n"
	}

	if _, err := svc.Import(context.Background(), []byte(csvData), "upload.csv", nil, manager); err != nil {
		t.Fatalf("Import: %v", err)
	}

	views, err := svc.List(context.Background(), manager)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	counts := make(map[string]int)
	for _, view := range views {
		counts[view.AssignedTo]++
	}
	if counts["a"] != 4 || counts["b"] != 3 || counts["c"] != 3 {
		t.Fatalf("10 leads over 3 agents should split 4/3/3, got %v", counts)
	}
}

func TestImportExplicitAssignee(t *testing.T) {
	svc, _ := newTestService(t, staticAgents{names: []string{"a", "b"}})

	csvData := "Name,Phone\nLead,9000000001\nLead,9000000002\n"
	if _, err := svc.Import(context.Background(), []byte(csvData), "upload.csv", []string{"ALL"}, manager); err != nil {
		t.Fatalf("Import: %v", err)
	}

	views, err := svc.List(context.Background(), manager)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, view := range views {
		if view.AssignedTo != "ALL" {
			t.Fatalf("assignee = %q, want ALL", view.AssignedTo)
		}
	}
}

func TestDeleteByKeys(t *testing.T) {
	svc, mem := newTestService(t, nil)

	createLead(t, svc, "One", "1111111111", "New", "", "ravi")
	createLead(t, svc, "Two", "2222222222", "New", "", "ravi")
	createLead(t, svc, "Three", "3333333333", "New", "", "ravi")

	deleted, err := svc.Delete(context.Background(), []string{"1111111111", "3333333333", "0000000000"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	table, err := mem.ReadAll(context.Background(), testSheet)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0].Cells[domain.ColName] != "Two" {
		t.Fatalf("wrong survivor: %+v", table.Rows)
	}
	if table.Rows[0].Position != 1 {
		t.Fatalf("positions not dense after delete: %d", table.Rows[0].Position)
	}
}

func TestWhatsAppQR(t *testing.T) {
	svc, _ := newTestService(t, nil)

	createLead(t, svc, "Asha", "9876543210", "New", "", "ravi")

	png, err := svc.WhatsAppQR(context.Background(), "9876543210", agent)
	if err != nil {
		t.Fatalf("WhatsAppQR: %v", err)
	}
	if len(png) == 0 {
		t.Fatalf("empty QR image")
	}
	// PNG magic bytes.
	if png[0] != 0x89 || png[1] != 'P' || png[2] != 'N' || png[3] != 'G' {
		t.Fatalf("not a PNG: % x", png[:4])
	}
}

func TestWhatsAppLinkIncludesCountryCodeAndGreeting(t *testing.T) {
	svc, _ := newTestService(t, nil)

	link := svc.whatsAppLink(domain.Lead{Name: "Asha", Phone: "98765 43210"})
	if want := "https://wa.me/919876543210?text="; len(link) < len(want) || link[:len(want)] != want {
		t.Fatalf("link = %q", link)
	}
}

func TestExportXLSXFiltersToViewer(t *testing.T) {
	svc, _ := newTestService(t, nil)

	createLead(t, svc, "Mine", "9000000001", "New", "", "ravi")
	createLead(t, svc, "Theirs", "9000000002", "New", "", "priya")

	data, err := svc.ExportXLSX(context.Background(), agent)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 { // header + the agent's one lead
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != domain.ColID {
		t.Fatalf("header starts with %q", rows[0][0])
	}
	if got := rows[1][2]; got != "Mine" {
		t.Fatalf("exported name = %q", got)
	}
}

func TestCreateStripsHTMLFromNotes(t *testing.T) {
	svc, _ := newTestService(t, nil)

	view, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:  "Asha <script>alert(1)</script>",
		Phone: "9000000003",
		Notes: "<b>prefers</b> evenings",
	}, manager)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.Name != "Asha alert(1)" {
		t.Fatalf("name = %q", view.Name)
	}
	if view.Notes != "prefers evenings" {
		t.Fatalf("notes = %q", view.Notes)
	}
}

func TestImportRoundRobinOverChosenSubset(t *testing.T) {
	// The directory has three agents but the manager picked two; only the
	// chosen two receive leads, in order.
	svc, _ := newTestService(t, staticAgents{names: []string{"a", "b", "c"}})

	csvData := "Name,Phone\n"
	for _, n := range []string{"9000000001", "9000000002", "9000000003", "9000000004", "9000000005"} {
		csvData += "Lead," + n + "\n"
	}

	if _, err := svc.Import(context.Background(), []byte(csvData), "upload.csv", []string{"a", "c"}, manager); err != nil {
		t.Fatalf("Import: %v", err)
	}

	views, err := svc.List(context.Background(), manager)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	counts := make(map[string]int)
	for _, view := range views {
		counts[view.AssignedTo]++
	}
	if counts["a"] != 3 || counts["c"] != 2 || counts["b"] != 0 {
		t.Fatalf("5 leads over chosen agents [a c] should split 3/2, got %v", counts)
	}
}

func TestWhatsAppLinkKeepsStoredCountryCode(t *testing.T) {
	svc, _ := newTestService(t, nil)

	link := svc.whatsAppLink(domain.Lead{Name: "Sam", Phone: "+1 650-253-0000"})
	if want := "https://wa.me/16502530000?text="; len(link) < len(want) || link[:len(want)] != want {
		t.Fatalf("link = %q", link)
	}
}

func TestWhatsAppLinkFallsBackToDefaultPrefix(t *testing.T) {
	svc, _ := newTestService(t, nil)

	// Not a parseable number; the configured prefix goes in front of the key.
	link := svc.whatsAppLink(domain.Lead{Name: "Asha", Phone: "0000011111"})
	if want := "https://wa.me/910000011111?text="; len(link) < len(want) || link[:len(want)] != want {
		t.Fatalf("link = %q", link)
	}
}

func TestUpdateRejectsEmptyStatus(t *testing.T) {
	svc, _ := newTestService(t, nil)

	createLead(t, svc, "Mine", "1111111111", "New", "", "ravi")

	empty := ""
	_, err := svc.Update(context.Background(), "1111111111", transport.UpdateLeadRequest{Status: &empty}, agent)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	view, err := svc.Get(context.Background(), "1111111111", agent)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Status != "New" {
		t.Fatalf("status = %q, want untouched New", view.Status)
	}
}
