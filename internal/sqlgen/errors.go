package sqlgen

import "fmt"

// BindingError reports a $name parameter with no entry in the caller's
// bindings map, surfaced only when config.TranslatorConfig.StrictBindings
// is set; otherwise a missing binding compiles to NULL.
type BindingError struct {
	Param   string
	Message string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("parameter $%s: %s", e.Param, e.Message)
}
