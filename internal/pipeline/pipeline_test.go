package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadock/datadock/internal/contract"
)

type recordedStage struct {
	name      string
	runErr    error
	verifyErr error
	ran       *[]string
	verified  bool
}

func (s *recordedStage) Name() string { return s.name }

func (s *recordedStage) Run(_ *Context) error {
	*s.ran = append(*s.ran, s.name)
	return s.runErr
}

type verifyingStage struct {
	recordedStage
}

func (s *verifyingStage) Verify(_ *Context) error {
	s.verified = true
	return s.verifyErr
}

func testContext(t *testing.T) *Context {
	t.Helper()
	store := contract.NewStore(filepath.Join(t.TempDir(), "platform.env"))
	return &Context{
		Context:  context.Background(),
		Contract: store,
	}
}

func TestRun_AllStagesInOrder(t *testing.T) {
	var ran []string
	stages := []Stage{
		&recordedStage{name: "foundation", ran: &ran},
		&recordedStage{name: "postgres", ran: &ran},
		&recordedStage{name: "portal", ran: &ran},
	}

	err := Run(testContext(t), stages, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"foundation", "postgres", "portal"}, ran)
}

func TestRun_HaltsOnFirstFailure(t *testing.T) {
	var ran []string
	boom := errors.New("readiness timeout")
	stages := []Stage{
		&recordedStage{name: "a", ran: &ran},
		&recordedStage{name: "b", ran: &ran, runErr: boom},
		&recordedStage{name: "c", ran: &ran},
	}

	err := Run(testContext(t), stages, nil)

	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, ran, "stage c must never execute")

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "b", se.Stage)
	assert.ErrorIs(t, err, boom)
}

func TestRun_SelectionRunsOnlyNamedStages(t *testing.T) {
	var ran []string
	stages := []Stage{
		&recordedStage{name: "foundation", ran: &ran},
		&recordedStage{name: "postgres", ran: &ran},
		&recordedStage{name: "portal", ran: &ran},
	}

	err := Run(testContext(t), stages, []string{"portal", "foundation"})

	require.NoError(t, err)
	// Declared order wins over selection order.
	assert.Equal(t, []string{"foundation", "portal"}, ran)
}

func TestRun_UnknownSelectorFailsBeforeAnyStage(t *testing.T) {
	var ran []string
	stages := []Stage{
		&recordedStage{name: "foundation", ran: &ran},
	}

	err := Run(testContext(t), stages, []string{"no-such-stage"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-stage")
	assert.Empty(t, ran)
}

func TestRun_PostConditionFailureHalts(t *testing.T) {
	var ran []string
	vs := &verifyingStage{recordedStage{name: "b", ran: &ran, verifyErr: errors.New("probe failed")}}
	stages := []Stage{
		&recordedStage{name: "a", ran: &ran},
		vs,
		&recordedStage{name: "c", ran: &ran},
	}

	err := Run(testContext(t), stages, nil)

	require.Error(t, err)
	assert.True(t, vs.verified)
	assert.Equal(t, []string{"a", "b"}, ran)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "b", se.Stage)
}

func TestRun_PersistsContractAfterEachStage(t *testing.T) {
	ctx := testContext(t)
	var ran []string
	stages := []Stage{
		&recordedStage{name: "gen", ran: &ran},
	}
	ctx.Contract.Set("GENERATED", "value", contract.OriginGenerated)

	require.NoError(t, Run(ctx, stages, nil))

	// A fresh store over the same path sees the persisted value.
	reloaded := contract.NewStore(ctx.Contract.Path())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, "value", reloaded.Get("GENERATED"))
}
