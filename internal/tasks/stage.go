package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// Action is a stage-scoped request verb.
type Action string

const (
	ActionInit     Action = "init"
	ActionRange    Action = "range"
	ActionAnalyze  Action = "analyze"
	ActionFixFiles Action = "fixfiles"
	ActionPostProc Action = "postproc"
	ActionProcess  Action = "process"
	ActionResults  Action = "results"
	ActionCancel   Action = "cancel"
)

var actionTargets = map[Action]models.Stage{
	ActionInit:     models.StageSelect,
	ActionRange:    models.StageImport,
	ActionAnalyze:  models.StageAnalyze,
	ActionFixFiles: models.StageFix,
	ActionPostProc: models.StagePostProcess,
	ActionProcess:  models.StageFinished,
	ActionResults:  models.StageFinished,
	ActionCancel:   models.StageCancelled,
}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := actionTargets[a]; !ok {
		return "", fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, s)
	}
	return a, nil
}

// Target is the stage a successful request moves its task to.
func (a Action) Target() models.Stage {
	return actionTargets[a]
}

// Creates reports whether a request without a task id starts a new task.
func (a Action) Creates() bool {
	return a == ActionInit || a == ActionRange
}

// checkTransition enforces monotonic stage order. Staying in place is allowed.
func checkTransition(from, to models.Stage) error {
	if from.Terminal() {
		return fmt.Errorf("%w: task is %s", shared.ErrInvalidTransition, from)
	}
	if to == models.StageCancelled {
		return nil
	}
	if to < from {
		return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, from, to)
	}
	return nil
}
