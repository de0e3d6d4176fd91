package fdtgeneric

import (
	"log"
	"strings"

	"github.com/sarchlab/fdtplatform/datarecording"
	"github.com/sarchlab/fdtplatform/hooking"
)

// LogHook prints the components the framework creates and the nodes it
// skips.
type LogHook struct {
	hooking.LogHookBase
}

// NewLogHook creates a LogHook that writes to logger.
func NewLogHook(logger *log.Logger) *LogHook {
	h := new(LogHook)
	h.Logger = logger

	return h
}

// Func prints the hook context.
func (h *LogHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosComponentCreated:
		d := ctx.Detail.(ComponentCreated)
		h.Printf("created %s at %s", d.Compatible, d.Path)
	case HookPosNodeSkipped:
		compatibles := ctx.Detail.([]string)
		h.Printf("skipped %s: no factory for %s",
			ctx.Item, strings.Join(compatibles, ", "))
	}
}

const componentTable = "component"

type componentEntry struct {
	SessionID  string
	Path       string
	Compatible string
}

// RecordHook writes every created component into a data recorder.
type RecordHook struct {
	recorder datarecording.DataRecorder
}

// NewRecordHook creates a RecordHook and the table it writes to.
func NewRecordHook(recorder datarecording.DataRecorder) *RecordHook {
	recorder.CreateTable(componentTable, componentEntry{})

	return &RecordHook{recorder: recorder}
}

// Func records created components.
func (h *RecordHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosComponentCreated {
		return
	}

	d := ctx.Detail.(ComponentCreated)
	h.recorder.InsertData(componentTable, componentEntry(d))
}
