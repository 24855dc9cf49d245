package chunker

import "github.com/dshills/docchunk/pkg/types"

// Select picks the backend for a block from its modal hint, language hint
// and the available engines. Any missing engine selects the structural
// backend.
func Select(hint types.ModalHint, lang string, caps Capabilities) types.BackendName {
	switch hint {
	case types.ModalCode:
		if caps.HasParserFor(lang) {
			return types.BackendSyntaxTree
		}
	case types.ModalTable, types.ModalList:
		return types.BackendStructural
	case types.ModalProse:
		if caps.HasSegmenter {
			return types.BackendTokenBudget
		}
	}
	return types.BackendStructural
}
