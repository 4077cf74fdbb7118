package http

import (
	"fmt"
	"net/http"

	"opsdesk/internal/api"
	"opsdesk/internal/audit"
	"opsdesk/internal/core"
	"opsdesk/internal/daterange"
	"opsdesk/internal/filter"
)

type tasksData struct {
	Filter filter.ListFilter
	Range  daterange.Range
	Page   api.Page[core.Task]
}

type schedulerData struct {
	Status core.SchedulerStatus
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	f := filter.Parse(r.URL.Query()).Normalize()
	data := tasksData{Filter: f}
	v := view{Title: "Tasks", Nav: "tasks", Data: &data}

	rng, err := f.Resolve(s.now(), daterange.Today)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, r, nil, "tasks", v, nil)
		return
	}
	data.Range = rng
	q, err := f.APIQuery(s.now(), daterange.Today)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, r, nil, "tasks", v, nil)
		return
	}
	if data.Page, err = s.api.Tasks(r.Context(), q); err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Task list load failed", err)
		v.Error = userMessage(err)
	}
	s.render(w, r, nil, "tasks", v, nil)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := backTo(r, "/tasks")
	var form taskStatusForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, back, err)
		return
	}
	status := core.TaskStatus(form.Status)
	if err := s.api.UpdateTaskStatus(r.Context(), id, status); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.record(r.Context(), audit.ActionStatus, audit.ResourceTask, id, string(status))
	s.done(w, r, audit.ResourceTask, back, "Task marked "+string(status))
}

// generationRequest resolves the form's preset or custom bounds into the
// request sent to the backend.
func (s *Server) generationRequest(f generateTasksForm) (core.TaskGenerationRequest, error) {
	preset, err := daterange.ParsePreset(f.Range)
	if err != nil {
		return core.TaskGenerationRequest{}, invalid(err)
	}
	var custom daterange.Range
	if preset == daterange.Custom {
		if custom.Start, err = parseOptionalDate(f.Start); err != nil {
			return core.TaskGenerationRequest{}, err
		}
		if custom.End, err = parseOptionalDate(f.End); err != nil {
			return core.TaskGenerationRequest{}, err
		}
	}
	rng, err := daterange.Resolve(preset, s.now(), custom)
	if err != nil {
		return core.TaskGenerationRequest{}, invalid(err)
	}
	req := core.TaskGenerationRequest{
		ChecklistType: core.ChecklistType(f.ChecklistType),
		StartDate:     rng.Start,
		EndDate:       rng.End,
	}
	if err := req.Validate(); err != nil {
		return core.TaskGenerationRequest{}, invalid(err)
	}
	return req, nil
}

func (s *Server) handleGenerateTasks(w http.ResponseWriter, r *http.Request) {
	back := backTo(r, "/tasks")
	var form generateTasksForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, back, err)
		return
	}
	req, err := s.generationRequest(form)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}
	res, err := s.api.GenerateTasks(r.Context(), req)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}
	summary := fmt.Sprintf("%s tasks %s to %s: %d created, %d skipped",
		req.ChecklistType, req.StartDate, req.EndDate, res.Created, res.Skipped)
	s.record(r.Context(), audit.ActionGenerate, audit.ResourceTask, "", summary)

	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("%d tasks created, %d skipped", res.Created, res.Skipped)
	}
	s.done(w, r, audit.ResourceTask, back, msg)
}

// handleScheduler renders the scheduler status block.
func (s *Server) handleScheduler(w http.ResponseWriter, r *http.Request) {
	var data schedulerData
	v := view{Title: "Task scheduler", Nav: "tasks", Data: &data}
	st, err := s.api.SchedulerStatus(r.Context())
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Scheduler status load failed", err)
		v.Error = userMessage(err)
	}
	data.Status = st
	s.render(w, r, nil, "scheduler", v, nil)
}

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	back := backTo(r, "/tasks")
	if err := s.api.StartScheduler(r.Context()); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.record(r.Context(), audit.ActionStart, audit.ResourceScheduler, "", "")
	s.done(w, r, audit.ResourceScheduler, back, "Scheduler started")
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	back := backTo(r, "/tasks")
	if err := s.api.StopScheduler(r.Context()); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.record(r.Context(), audit.ActionStop, audit.ResourceScheduler, "", "")
	s.done(w, r, audit.ResourceScheduler, back, "Scheduler stopped")
}
