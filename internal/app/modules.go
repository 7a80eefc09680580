package app

import (
	"io"

	"github.com/specialistvlad/flowgridgo/internal/handlers"
	"github.com/specialistvlad/flowgridgo/modules/print"
	"github.com/specialistvlad/flowgridgo/modules/sleep"
)

// coreModules is the definitive list of all modules that are compiled into
// the flowgridgo binary.
func coreModules(outW io.Writer) []handlers.Module {
	return []handlers.Module{
		&print.Module{Out: outW},
		&sleep.Module{},
	}
}
