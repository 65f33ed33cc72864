package blueprint

import "github.com/leonelquinteros/gotext"

// User-facing message ids. They double as the English text when no
// translation domain is loaded.
const (
	msgUnrotatableNonSquare            = "%s cannot be rotated cleanly: it is not square, not centered and not rotatable."
	msgUnrotatableNonSquareInteraction = "%s cannot be rotated cleanly: it is not square, not centered and not rotatable; its interaction cell may become inaccessible."
	msgUnrotatableInteraction          = "%s is not rotatable; its interaction cell may become inaccessible."
	msgUnflippableInteraction          = "%s cannot be mirrored; its interaction cell may become inaccessible."
	msgDefaultName                     = "Blueprint"
	msgSelectionName                   = "Selection"
	msgPlural                          = "%ss"
)

func tr(id string, vars ...any) string {
	return gotext.Get(id, vars...)
}
