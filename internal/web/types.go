package web

// Renderer produces the bodies the routes serve. view.Renderer is the
// production implementation.
type Renderer interface {
	Page(name string) ([]byte, error)
	PageAll() ([]byte, error)
	Tag(name string) ([]byte, error)
	TagAll() ([]byte, error)
	Static(name string) ([]byte, string, error)
	StaticAll() ([]byte, error)
	Search(query string) ([]byte, error)
	Save(name, content string) error
	Move(oldName, newName string) error
	Delete(name string) error
}
