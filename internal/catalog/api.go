package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/launchpad/internal/artifact"
	"github.com/roach88/launchpad/internal/build"
	"github.com/roach88/launchpad/internal/cleanup"
	"github.com/roach88/launchpad/internal/journal"
	"github.com/roach88/launchpad/internal/launch"
	"github.com/roach88/launchpad/internal/program"
	"github.com/roach88/launchpad/internal/source"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// internalErrorMessage replaces any error that has no user-facing form.
const internalErrorMessage = "internal error"

// AddResponse answers AddProgram.
type AddResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	IconPath string `json:"icon_path,omitempty"`
}

// RunResponse answers RunProgram.
type RunResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DeleteResponse answers DeletePrograms.
type DeleteResponse struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	DeletedCount int      `json:"deleted_count"`
	FailedNames  []string `json:"failed_names"`
	Errors       []string `json:"errors,omitempty"`
}

// CleanResponse answers CleanAllPrograms.
type CleanResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// ProgramView is one program in a ListResponse.
type ProgramView struct {
	Name           string    `json:"name"`
	Language       string    `json:"language"`
	Icon           string    `json:"icon"`
	CreatedAt      time.Time `json:"created_at"`
	ArtifactStatus string    `json:"artifact_status"`
}

// ListResponse answers ListPrograms.
type ListResponse struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Programs []ProgramView `json:"programs"`
}

// BuildView is one journal entry in a HistoryResponse.
type BuildView struct {
	ID         string     `json:"id"`
	Program    string     `json:"program"`
	Language   string     `json:"language"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	Summary    string     `json:"summary,omitempty"`
}

// HistoryResponse answers BuildHistory.
type HistoryResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Builds  []BuildView `json:"builds"`
}

// ValidateResponse answers Validate.
type ValidateResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Reindented bool   `json:"reindented,omitempty"`
	Code       string `json:"code,omitempty"`
}

// API is the boundary between a Service and untrusted callers.
type API struct {
	svc    *Service
	logger *slog.Logger
}

// NewAPI wraps svc.
func NewAPI(svc *Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{svc: svc, logger: logger}
}

// AddProgram submits a program.
func (a *API) AddProgram(ctx context.Context, req AddRequest) AddResponse {
	rec, err := a.svc.AddProgram(ctx, req)
	if err != nil {
		return AddResponse{Status: StatusError, Message: a.message("add program", err)}
	}
	return AddResponse{
		Status:   StatusSuccess,
		Message:  fmt.Sprintf("program %q added and packaged", rec.Name),
		IconPath: rec.IconRef,
	}
}

// RunProgram launches a program.
func (a *API) RunProgram(ctx context.Context, name string) RunResponse {
	if err := a.svc.RunProgram(ctx, name); err != nil {
		return RunResponse{Status: StatusError, Message: a.message("run program", err)}
	}
	return RunResponse{Status: StatusSuccess, Message: "program started"}
}

// DeletePrograms deletes programs by name.
func (a *API) DeletePrograms(ctx context.Context, names []string) DeleteResponse {
	report, err := a.svc.DeletePrograms(ctx, names)
	if errors.Is(err, cleanup.ErrNoNames) {
		return DeleteResponse{Status: StatusError, Message: "no programs selected", FailedNames: []string{}}
	}
	if err != nil {
		return DeleteResponse{Status: StatusError, Message: a.message("delete programs", err), FailedNames: []string{}}
	}

	resp := DeleteResponse{
		Status:       string(report.Status),
		DeletedCount: report.DeletedCount(),
		FailedNames:  report.FailedNames(),
	}
	for _, o := range report.Outcomes {
		if !o.Deleted && o.Err != nil {
			resp.Errors = append(resp.Errors, o.Name+": "+a.message("delete "+o.Name, o.Err))
		}
	}
	if resp.FailedNames == nil {
		resp.FailedNames = []string{}
	}
	total := len(report.Outcomes)
	switch report.Status {
	case cleanup.StatusSuccess:
		resp.Message = fmt.Sprintf("deleted %d of %d programs", resp.DeletedCount, total)
	case cleanup.StatusPartial:
		resp.Message = fmt.Sprintf("deleted %d of %d programs; failed: %s",
			resp.DeletedCount, total, strings.Join(resp.FailedNames, ", "))
	default:
		resp.Message = "no programs deleted; failed: " + strings.Join(resp.FailedNames, ", ")
	}
	return resp
}

// CleanAllPrograms removes every program.
func (a *API) CleanAllPrograms(ctx context.Context) CleanResponse {
	report := a.svc.CleanAll(ctx)
	if report.Status == cleanup.StatusSuccess {
		return CleanResponse{Status: StatusSuccess, Message: "all programs cleaned"}
	}
	msgs := make([]string, 0, len(report.Errors))
	for _, err := range report.Errors {
		msgs = append(msgs, a.message("clean all", err))
	}
	return CleanResponse{
		Status:  StatusError,
		Message: fmt.Sprintf("cleanup finished with %d errors", len(msgs)),
		Errors:  msgs,
	}
}

// ListPrograms lists every program.
func (a *API) ListPrograms(ctx context.Context) ListResponse {
	listings, err := a.svc.ListPrograms(ctx)
	if err != nil {
		return ListResponse{Status: StatusError, Message: a.message("list programs", err), Programs: []ProgramView{}}
	}
	views := make([]ProgramView, 0, len(listings))
	for _, l := range listings {
		views = append(views, ProgramView{
			Name:           l.Name,
			Language:       string(l.Language),
			Icon:           l.IconRef,
			CreatedAt:      l.CreatedAt,
			ArtifactStatus: string(l.ArtifactStatus),
		})
	}
	return ListResponse{Status: StatusSuccess, Programs: views}
}

// BuildHistory lists journaled builds for name (all programs if empty).
func (a *API) BuildHistory(ctx context.Context, name string, limit int) HistoryResponse {
	entries, err := a.svc.BuildHistory(ctx, name, limit)
	if err != nil {
		return HistoryResponse{Status: StatusError, Message: a.message("build history", err), Builds: []BuildView{}}
	}
	views := make([]BuildView, 0, len(entries))
	for _, e := range entries {
		views = append(views, buildView(e))
	}
	return HistoryResponse{Status: StatusSuccess, Builds: views}
}

func buildView(e journal.Entry) BuildView {
	v := BuildView{
		ID:        e.ID,
		Program:   e.Program,
		Language:  e.Language,
		Status:    string(e.Status),
		StartedAt: e.StartedAt,
		ExitCode:  e.ExitCode,
		Summary:   e.Summary,
	}
	if !e.FinishedAt.IsZero() {
		finished := e.FinishedAt
		v.FinishedAt = &finished
	}
	return v
}

// Validate checks code without storing it.
func (a *API) Validate(ctx context.Context, language, code string) ValidateResponse {
	n, err := a.svc.Validate(ctx, language, code)
	if err != nil {
		return ValidateResponse{Status: StatusError, Message: a.message("validate", err)}
	}
	return ValidateResponse{Status: StatusSuccess, Message: "source is valid", Reindented: n.Reindented, Code: n.Code}
}

// message converts err to user-safe text, logging errors that have none.
func (a *API) message(op string, err error) string {
	if msg, ok := UserMessage(err); ok {
		a.logger.Debug(op+" failed", "error", err)
		return msg
	}
	a.logger.Error(op+" failed", "error", err)
	return internalErrorMessage
}

// UserMessage returns the user-facing text for a classified error.
func UserMessage(err error) (string, bool) {
	var (
		nameErr   *program.NameError
		dupErr    *program.DuplicateNameError
		notFound  *program.NotFoundError
		syntaxErr *source.SyntaxError
		buildErr  *build.Error
		launchErr *launch.Error
	)
	switch {
	case errors.As(err, &nameErr):
		return "invalid program name: " + nameErr.Reason, true
	case errors.As(err, &dupErr):
		return fmt.Sprintf("program %q already exists", dupErr.Name), true
	case errors.As(err, &notFound):
		return fmt.Sprintf("program %q not found", notFound.Name), true
	case errors.Is(err, program.ErrUnsupportedLanguage):
		return "unsupported language", true
	case errors.Is(err, source.ErrEmpty):
		return "source code is empty", true
	case errors.As(err, &syntaxErr):
		return syntaxErr.Error(), true
	case errors.As(err, &buildErr):
		switch buildErr.Kind {
		case build.KindTimeout:
			return fmt.Sprintf("build timed out after %s", buildErr.Timeout), true
		case build.KindNonZeroExit:
			if buildErr.Summary == "" {
				return fmt.Sprintf("build failed with exit code %d", buildErr.ExitCode), true
			}
			return "build failed: " + buildErr.Summary, true
		default:
			return "packaging tool could not be run", true
		}
	case errors.Is(err, artifact.ErrNotFound):
		return "executable not found", true
	case errors.As(err, &launchErr):
		return "launch failed: " + launchErr.Meaning, true
	}
	return "", false
}
