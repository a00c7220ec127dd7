// Package templates renders the HTML pages and HTMX fragments.
//
// Markup lives in the .templ files; run `templ generate` after editing them.
package templates

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/namematch/internal/core"
)

// htmx swaps error responses too; error fragments are retargeted server side.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"...","swap":true}]}`

const acceptedFiles = ".xlsx,.xlsm,.xls,.csv"

var exportKinds = []string{"xlsx", "csv"}

func workspaceURL(id string) string {
	return "/api/workspaces/" + id
}

func uploadURL(id string, f core.Format) string {
	return workspaceURL(id) + "/upload/" + string(f)
}

func exportURL(id, kind string) templ.SafeURL {
	return templ.URL(workspaceURL(id) + "/export." + kind)
}

// slotState describes a slot that has no error to show.
func slotState(sl core.SlotView) string {
	switch {
	case sl.Processing:
		return "обработка " + sl.FileName + "..."
	case sl.Ready:
		return sl.FileName + ", строк: " + strconv.Itoa(sl.RowsRead) + ", имён: " + strconv.Itoa(sl.Extracted)
	default:
		return "не загружен"
	}
}

func formatSize(n int64) string {
	const mb = 1 << 20
	if n >= mb {
		return strconv.FormatInt(n/mb, 10) + " МБ"
	}
	return strconv.FormatInt(n, 10) + " байт"
}
