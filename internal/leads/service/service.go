// Package service implements the lead pipeline use cases: queue views,
// lead intake, updates, bulk import and deletion.
package service

import (
	"bytes"
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"

	"terratip_backend/internal/events"
	"terratip_backend/internal/leads/assign"
	"terratip_backend/internal/leads/cache"
	"terratip_backend/internal/leads/domain"
	"terratip_backend/internal/leads/importer"
	"terratip_backend/internal/leads/repository"
	"terratip_backend/internal/leads/resolver"
	"terratip_backend/internal/leads/transport"
	"terratip_backend/platform/apperr"
	"terratip_backend/platform/logger"
	"terratip_backend/platform/phone"
	"terratip_backend/platform/sanitize"
)

// Archiver stores raw import files for audit. Implementations live in the
// storage adapter; a nil Archiver disables archiving.
type Archiver interface {
	Archive(ctx context.Context, filename string, data []byte) (string, error)
}

// AgentDirectory lists the names imports can be distributed across.
type AgentDirectory interface {
	ListAgentNames(ctx context.Context) ([]string, error)
}

// Service orchestrates the lead pipeline.
type Service struct {
	repo        *repository.Repository
	resolver    *resolver.Resolver
	snapshot    *cache.Snapshot
	bus         events.Bus
	archiver    Archiver
	agents      AgentDirectory
	countryCode string
	refresh     time.Duration
	now         func() time.Time
	log         *logger.Logger
}

// New creates the lead service. archiver and agents may be nil; snapshot
// may be nil when Redis is not configured.
func New(
	repo *repository.Repository,
	res *resolver.Resolver,
	snapshot *cache.Snapshot,
	bus events.Bus,
	archiver Archiver,
	agents AgentDirectory,
	countryCode string,
	refresh time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		resolver:    res,
		snapshot:    snapshot,
		bus:         bus,
		archiver:    archiver,
		agents:      agents,
		countryCode: countryCode,
		refresh:     refresh,
		now:         time.Now,
		log:         log,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// leads returns the current lead list, serving from the snapshot cache when
// it is warm and falling back to the record store.
func (s *Service) leads(ctx context.Context) ([]domain.Lead, error) {
	if cached, ok := s.snapshot.Get(ctx); ok {
		return cached, nil
	}

	leads, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.snapshot.Set(ctx, leads); err != nil {
		s.log.Warn("lead snapshot cache write failed", "error", err)
	}
	return leads, nil
}

// List returns the leads visible to the viewer, in sheet order, each with
// its queue placement.
func (s *Service) List(ctx context.Context, viewer domain.Viewer) ([]transport.LeadView, error) {
	leads, err := s.leads(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now()
	views := make([]transport.LeadView, 0, len(leads))
	for _, lead := range leads {
		if !lead.VisibleTo(viewer) {
			continue
		}
		views = append(views, s.view(lead, today))
	}
	return views, nil
}

// Queues returns the viewer's leads grouped into the four working queues.
// The action queue is ordered by urgency, the future queue by date.
func (s *Service) Queues(ctx context.Context, viewer domain.Viewer) (transport.QueuesResponse, error) {
	views, err := s.List(ctx, viewer)
	if err != nil {
		return transport.QueuesResponse{}, err
	}

	resp := transport.QueuesResponse{
		Action:  []transport.LeadView{},
		Future:  []transport.LeadView{},
		Recycle: []transport.LeadView{},
		Closed:  []transport.LeadView{},
	}
	for _, view := range views {
		switch view.Bucket {
		case domain.BucketAction:
			resp.Action = append(resp.Action, view)
		case domain.BucketFuture:
			resp.Future = append(resp.Future, view)
		case domain.BucketRecycle:
			resp.Recycle = append(resp.Recycle, view)
		default:
			resp.Closed = append(resp.Closed, view)
		}
	}

	sort.SliceStable(resp.Action, func(i, j int) bool {
		if resp.Action[i].Priority.Rank != resp.Action[j].Priority.Rank {
			return resp.Action[i].Priority.Rank < resp.Action[j].Priority.Rank
		}
		return resp.Action[i].FollowUpDate < resp.Action[j].FollowUpDate
	})
	sort.SliceStable(resp.Future, func(i, j int) bool {
		return resp.Future[i].FollowUpDate < resp.Future[j].FollowUpDate
	})

	return resp, nil
}

// Get returns one lead by natural key.
func (s *Service) Get(ctx context.Context, key string, viewer domain.Viewer) (transport.LeadView, error) {
	lead, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return transport.LeadView{}, err
	}
	if !lead.VisibleTo(viewer) {
		return transport.LeadView{}, apperr.Forbidden("lead is assigned to someone else")
	}
	return s.view(lead, s.now()), nil
}

// Create adds a single lead typed in by the actor. Duplicate phone numbers
// are rejected; an unassigned lead defaults to the creator.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest, actor domain.Viewer) (transport.LeadView, error) {
	key := phone.NaturalKey(req.Phone)
	if len(key) < phone.NaturalKeyLength {
		return transport.LeadView{}, apperr.Validation("phone number must have at least 10 digits")
	}

	// Dedupe against the store directly, never the cache.
	existing, err := s.repo.Keys(ctx)
	if err != nil {
		return transport.LeadView{}, err
	}
	if _, ok := existing[key]; ok {
		return transport.LeadView{}, apperr.Conflict("a lead with this phone number already exists")
	}

	now := s.now()
	lead := domain.Lead{
		ID:           uuid.NewString(),
		CreatedAt:    now.Format(time.RFC3339),
		Name:         sanitize.Text(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Source:       sanitize.Text(req.Source),
		ReferredBy:   sanitize.Text(req.ReferredBy),
		AssignedTo:   strings.TrimSpace(req.AssignedTo),
		Status:       strings.TrimSpace(req.Status),
		Notes:        sanitize.Text(req.Notes),
		FollowUpDate: req.FollowUpDate,
		Tag:          strings.TrimSpace(req.Tag),
	}
	if lead.Status == "" {
		lead.Status = "New"
	}
	if lead.AssignedTo == "" {
		lead.AssignedTo = actorName(actor)
	}

	if err := s.repo.Append(ctx, lead); err != nil {
		return transport.LeadView{}, err
	}
	s.invalidate(ctx)

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		Key:        key,
		Name:       lead.Name,
		Source:     lead.Source,
		AssignedTo: lead.AssignedTo,
	})
	if lead.FollowUpDate != "" {
		s.publishFollowUp(ctx, lead)
	}

	return s.view(lead, now), nil
}

// Update applies a partial update to the lead with the given key. Agents
// may only touch leads they can see.
func (s *Service) Update(ctx context.Context, key string, req transport.UpdateLeadRequest, actor domain.Viewer) (transport.LeadView, error) {
	current, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return transport.LeadView{}, err
	}
	if !current.VisibleTo(actor) {
		return transport.LeadView{}, apperr.Forbidden("lead is assigned to someone else")
	}
	if req.AssignedTo != nil && !actor.Manager {
		return transport.LeadView{}, apperr.Forbidden("only managers can reassign leads")
	}

	note := req.Note
	if note != nil {
		clean := sanitize.Text(*note)
		note = &clean
	}

	updated, err := s.resolver.Apply(ctx, key, resolver.Update{
		Status:       req.Status,
		Note:         note,
		FollowUpDate: req.FollowUpDate,
		AssignedTo:   req.AssignedTo,
	})
	if err != nil {
		return transport.LeadView{}, err
	}
	s.invalidate(ctx)

	s.bus.Publish(ctx, events.LeadUpdated{
		BaseEvent: events.NewBaseEvent(),
		Key:       key,
		Status:    updated.Status,
		UpdatedBy: actorName(actor),
	})
	if req.FollowUpDate != nil && *req.FollowUpDate != "" {
		s.publishFollowUp(ctx, updated)
	}

	return s.view(updated, s.now()), nil
}

// Import parses an uploaded file and appends every new lead. The batch is
// spread round-robin across the given agents in order; with none given it
// cycles over the whole agent directory, and with no agents at all the
// leads land in the shared pool.
func (s *Service) Import(ctx context.Context, data []byte, filename string, assignees []string, actor domain.Viewer) (transport.ImportReport, error) {
	candidates, err := importer.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return transport.ImportReport{}, err
	}

	s.archive(ctx, filename, data)

	existing, err := s.repo.Keys(ctx)
	if err != nil {
		return transport.ImportReport{}, err
	}

	nextAssignee := s.assigneePicker(ctx, assignees)

	var report transport.ImportReport
	now := s.now()
	for _, candidate := range candidates {
		key := phone.NaturalKey(candidate.Phone)
		if len(key) < phone.NaturalKeyLength {
			report.Malformed++
			continue
		}
		if _, ok := existing[key]; ok {
			report.Duplicates++
			continue
		}
		existing[key] = struct{}{}

		lead := domain.Lead{
			ID:         uuid.NewString(),
			CreatedAt:  now.Format(time.RFC3339),
			Name:       sanitize.Text(candidate.Name),
			Phone:      candidate.Phone,
			Source:     "Import: " + filename,
			AssignedTo: nextAssignee(),
			Status:     "New",
			Notes:      sanitize.Text(candidate.Note),
		}
		if err := s.repo.Append(ctx, lead); err != nil {
			return report, err
		}
		report.Added++

		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:  events.NewBaseEvent(),
			Key:        key,
			Name:       lead.Name,
			Source:     lead.Source,
			AssignedTo: lead.AssignedTo,
		})
	}

	s.invalidate(ctx)
	return report, nil
}

// Delete removes the leads with the given keys and reports how many rows
// actually went away.
func (s *Service) Delete(ctx context.Context, keys []string) (int, error) {
	deleted, err := s.repo.DeleteByKeys(ctx, keys)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return deleted, nil
}

// ExportXLSX renders the viewer's leads as a spreadsheet in sheet order,
// one row per lead under the canonical header.
func (s *Service) ExportXLSX(ctx context.Context, viewer domain.Viewer) ([]byte, error) {
	leads, err := s.leads(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &domain.Header); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not write export header", err)
	}

	rowNum := 2
	for _, lead := range leads {
		if !lead.VisibleTo(viewer) {
			continue
		}
		cells := lead.ToCells()
		row := make([]interface{}, len(domain.Header))
		for i, col := range domain.Header {
			row[i] = cells[col]
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not address export row", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not write export row", err)
		}
		rowNum++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not serialize export", err)
	}
	return buf.Bytes(), nil
}

// WhatsAppQR renders a QR code that opens a WhatsApp chat with the lead,
// greeting them by name.
func (s *Service) WhatsAppQR(ctx context.Context, key string, viewer domain.Viewer) ([]byte, error) {
	lead, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !lead.VisibleTo(viewer) {
		return nil, apperr.Forbidden("lead is assigned to someone else")
	}

	link := s.whatsAppLink(lead)
	if link == "" {
		return nil, apperr.Validation("lead has no usable phone number")
	}

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not render QR code", err)
	}
	return png, nil
}

// RunRefresh keeps the snapshot cache warm until the context is cancelled.
func (s *Service) RunRefresh(ctx context.Context) error {
	if s.snapshot == nil || s.refresh <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			leads, err := s.repo.List(ctx)
			if err != nil {
				s.log.StoreError("refresh lead snapshot", err)
				continue
			}
			if err := s.snapshot.Set(ctx, leads); err != nil {
				s.log.Warn("lead snapshot cache write failed", "error", err)
			}
		}
	}
}

func (s *Service) view(lead domain.Lead, today time.Time) transport.LeadView {
	bucket, priority := domain.Classify(lead, today)
	return transport.LeadView{
		Lead:         lead,
		Key:          lead.Key(),
		Bucket:       bucket,
		Priority:     priority,
		WhatsAppLink: s.whatsAppLink(lead),
	}
}

func (s *Service) whatsAppLink(lead domain.Lead) string {
	key := lead.Key()
	if key == "" {
		return ""
	}

	// A number that parses keeps its own country code; otherwise the
	// configured default prefix goes in front of the 10-digit key.
	number := s.countryCode + key
	if e164 := phone.NormalizeE164(lead.Phone); isE164(e164) {
		number = e164[1:]
	}

	link := "https://wa.me/" + number
	greeting := "Hi"
	if lead.Name != "" {
		greeting = "Hi " + lead.Name
	}
	return link + "?text=" + url.QueryEscape(greeting+", thank you for your interest. When would be a good time to talk?")
}

// isE164 reports whether s looks like +<digits>, the only shape
// NormalizeE164 returns on success.
func isE164(s string) bool {
	if len(s) < 2 || s[0] != '+' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// assigneePicker returns a function yielding the assignee for each imported
// lead, cycling over the chosen agents or the whole directory.
func (s *Service) assigneePicker(ctx context.Context, assignees []string) func() string {
	names := make([]string, 0, len(assignees))
	for _, name := range assignees {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}

	if len(names) == 0 && s.agents != nil {
		listed, err := s.agents.ListAgentNames(ctx)
		if err != nil {
			s.log.Warn("could not list agents for assignment", "error", err)
		} else {
			names = listed
		}
	}

	if rr, err := assign.NewRoundRobin(names); err == nil {
		return rr.Next
	}
	return func() string { return domain.SharedAssignee }
}

func (s *Service) publishFollowUp(ctx context.Context, lead domain.Lead) {
	s.bus.Publish(ctx, events.FollowUpScheduled{
		BaseEvent:  events.NewBaseEvent(),
		Key:        lead.Key(),
		Name:       lead.Name,
		AssignedTo: lead.AssignedTo,
		FollowUpOn: lead.FollowUpDate,
	})
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.snapshot.Invalidate(ctx); err != nil {
		s.log.Warn("lead snapshot invalidation failed", "error", err)
	}
}

// archive stores the raw upload best effort; a failure never blocks the
// import.
func (s *Service) archive(ctx context.Context, filename string, data []byte) {
	if s.archiver == nil {
		return
	}
	if _, err := s.archiver.Archive(ctx, filename, data); err != nil {
		s.log.Warn("import archive failed", "filename", filename, "error", err)
	}
}

func actorName(actor domain.Viewer) string {
	if actor.DisplayName != "" {
		return actor.DisplayName
	}
	return actor.Username
}
