//go:build !windows

package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/launchpad/internal/artifact"
	"github.com/roach88/launchpad/internal/build"
	"github.com/roach88/launchpad/internal/launch"
	"github.com/roach88/launchpad/internal/program"
	"github.com/roach88/launchpad/internal/source"
	"github.com/roach88/launchpad/internal/testutil"
)

func TestAPI_AddProgram(t *testing.T) {
	f := newFixture(t, fixtureConfig{})
	ctx := context.Background()

	resp := f.api.AddProgram(ctx, AddRequest{Name: "snake", Code: validCode})
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, `program "snake" added and packaged`, resp.Message)
	assert.Equal(t, "placeholder_icon.png", resp.IconPath)

	resp = f.api.AddProgram(ctx, AddRequest{Name: "snake", Code: validCode})
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, `program "snake" already exists`, resp.Message)
	assert.Empty(t, resp.IconPath)

	resp = f.api.AddProgram(ctx, AddRequest{Name: "bad", Code: "# FAIL_BUILD\n"})
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "build failed: error: build refused", resp.Message)
}

func TestAPI_RunProgram(t *testing.T) {
	f := newFixture(t, fixtureConfig{})
	ctx := context.Background()

	resp := f.api.RunProgram(ctx, "ghost")
	assert.Equal(t, RunResponse{Status: StatusError, Message: `program "ghost" not found`}, resp)

	f.add(t, "snake", validCode)
	resp = f.api.RunProgram(ctx, "snake")
	assert.Equal(t, RunResponse{Status: StatusSuccess, Message: "program started"}, resp)

	f.code = 5
	resp = f.api.RunProgram(ctx, "snake")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "launch failed: "+launch.Describe(5), resp.Message)
}

func TestAPI_DeletePrograms(t *testing.T) {
	f := newFixture(t, fixtureConfig{})
	ctx := context.Background()
	f.add(t, "a", validCode)

	resp := f.api.DeletePrograms(ctx, []string{"a", "b"})
	assert.Equal(t, StatusPartial, resp.Status)
	assert.Equal(t, 1, resp.DeletedCount)
	assert.Equal(t, []string{"b"}, resp.FailedNames)
	assert.Equal(t, "deleted 1 of 2 programs; failed: b", resp.Message)
	testutil.AssertGoldenJSON(t, "api_delete_partial", resp)
	f.assertNoResidue(t, "a")

	resp = f.api.DeletePrograms(ctx, []string{"a"})
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, 0, resp.DeletedCount)
	assert.Equal(t, "no programs deleted; failed: a", resp.Message)

	resp = f.api.DeletePrograms(ctx, nil)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "no programs selected", resp.Message)
	assert.NotNil(t, resp.FailedNames)
}

func TestAPI_DeletePrograms_AllSucceed(t *testing.T) {
	f := newFixture(t, fixtureConfig{})
	f.add(t, "a", validCode)
	f.add(t, "b", validCode)

	resp := f.api.DeletePrograms(context.Background(), []string{"a", "b"})
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, 2, resp.DeletedCount)
	assert.Equal(t, []string{}, resp.FailedNames)
	assert.Equal(t, "deleted 2 of 2 programs", resp.Message)
}

func TestAPI_CleanAllPrograms(t *testing.T) {
	f := newFixture(t, fixtureConfig{})
	ctx := context.Background()
	f.add(t, "a", validCode)
	_, err := f.svc.AddProgram(ctx, AddRequest{Name: "b", Code: validCode, IconName: "b.png", Icon: []byte("png")})
	require.NoError(t, err)

	resp := f.api.CleanAllPrograms(ctx)
	assert.Equal(t, CleanResponse{Status: StatusSuccess, Message: "all programs cleaned"}, resp)
	f.assertNoResidue(t, "a")
	f.assertNoResidue(t, "b")
	assert.FileExists(t, f.layout.StaticPath(f.icons.Placeholder()))

	list := f.api.ListPrograms(ctx)
	assert.Equal(t, StatusSuccess, list.Status)
	assert.Empty(t, list.Programs)
}

func TestAPI_ListPrograms(t *testing.T) {
	f := newFixture(t, fixtureConfig{})
	f.add(t, "snake", validCode)

	resp := f.api.ListPrograms(context.Background())
	require.Equal(t, StatusSuccess, resp.Status)
	require.Len(t, resp.Programs, 1)
	assert.Equal(t, ProgramView{
		Name:           "snake",
		Language:       "python",
		Icon:           "placeholder_icon.png",
		CreatedAt:      time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		ArtifactStatus: "ok",
	}, resp.Programs[0])
}

func TestAPI_BuildHistory(t *testing.T) {
	f := newFixture(t, fixtureConfig{})
	ctx := context.Background()
	f.add(t, "snake", validCode)
	f.api.AddProgram(ctx, AddRequest{Name: "snake2", Code: "# FAIL_BUILD\n"})
	f.add(t, "snake2", validCode)

	resp := f.api.BuildHistory(ctx, "", 0)
	require.Equal(t, StatusSuccess, resp.Status)
	require.Len(t, resp.Builds, 3)
	assert.Equal(t, "build-0003", resp.Builds[0].ID, "newest first")
	assert.Equal(t, "succeeded", resp.Builds[0].Status)
	assert.Equal(t, "failed", resp.Builds[1].Status)
	require.NotNil(t, resp.Builds[1].ExitCode)
	assert.Equal(t, 2, *resp.Builds[1].ExitCode)
	assert.NotNil(t, resp.Builds[1].FinishedAt)

	resp = f.api.BuildHistory(ctx, "snake", 0)
	require.Len(t, resp.Builds, 1)
	assert.Equal(t, "build-0001", resp.Builds[0].ID)

	resp = f.api.BuildHistory(ctx, "not valid", 0)
	assert.Equal(t, StatusError, resp.Status)
	assert.NotNil(t, resp.Builds)
}

func TestAPI_Validate(t *testing.T) {
	f := newFixture(t, fixtureConfig{})

	resp := f.api.Validate(context.Background(), "python", validCode)
	assert.Equal(t, StatusSuccess, resp.Status)

	resp = f.api.Validate(context.Background(), "python", "SYNTAX_ERROR")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "syntax error at line 1, column 1: invalid syntax", resp.Message)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"name", &program.NameError{Name: "a b", Reason: "only letters, digits and underscores are allowed"},
			"invalid program name: only letters, digits and underscores are allowed"},
		{"wrapped duplicate", fmt.Errorf("commit: %w", &program.DuplicateNameError{Name: "snake"}),
			`program "snake" already exists`},
		{"language", fmt.Errorf("%w: cobol", program.ErrUnsupportedLanguage), "unsupported language"},
		{"empty", source.ErrEmpty, "source code is empty"},
		{"timeout", &build.Error{Kind: build.KindTimeout, Program: "snake", Timeout: 5 * time.Minute},
			"build timed out after 5m0s"},
		{"exit without summary", &build.Error{Kind: build.KindNonZeroExit, ExitCode: 4},
			"build failed with exit code 4"},
		{"tool", &build.Error{Kind: build.KindToolInvocationFailed, Err: errors.New("exec: not found")},
			"packaging tool could not be run"},
		{"artifact", &artifact.NotFoundError{Program: "snake"}, "executable not found"},
		{"launch", launch.FromCode("/x", 8), "launch failed: " + launch.Describe(8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UserMessage(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserMessage_Unclassified(t *testing.T) {
	_, ok := UserMessage(errors.New("disk on fire"))
	assert.False(t, ok)

	f := newFixture(t, fixtureConfig{})
	assert.Equal(t, "internal error", f.api.message("op", errors.New("/secret/path: permission denied")))
}
