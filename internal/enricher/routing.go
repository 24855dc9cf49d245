package enricher

import "github.com/dshills/docchunk/pkg/types"

// route is one row of the content-type table
type route struct {
	contentType string
	collections []string
}

var routes = map[types.ModalHint]route{
	types.ModalCode:           {contentType: "code", collections: []string{"code_snippets"}},
	types.ModalTable:          {contentType: "table", collections: []string{"tables", "reference"}},
	types.ModalList:           {contentType: "list", collections: []string{"reference"}},
	types.ModalStructuredData: {contentType: "structured_data", collections: []string{"structured_data"}},
	types.ModalProse:          {contentType: "text", collections: []string{"documentation"}},
}

// Route returns the content type and collection hints for a chunk. Code or
// tables embedded in a chunk of another shape add their collections too.
func Route(hint types.ModalHint, flags types.ContentFlags) (string, []string) {
	r, ok := routes[hint]
	if !ok {
		r = routes[types.ModalProse]
	}

	hints := append([]string(nil), r.collections...)
	if flags.HasCode && hint != types.ModalCode {
		hints = appendUnique(hints, "code_snippets")
	}
	if flags.HasTable && hint != types.ModalTable {
		hints = appendUnique(hints, "tables")
	}
	return r.contentType, hints
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
