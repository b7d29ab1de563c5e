package dynamicimage

import "context"

// Viewer is who the markup is rendered for. The zero value is a guest.
type Viewer struct {
	LoggedIn     bool
	CanEditPosts bool
}

// CanSeeErrors reports whether error messages may be shown to v. Only
// logged in editors see them, and only while debugging.
func (v Viewer) CanSeeErrors(debug bool) bool {
	return debug && v.LoggedIn && v.CanEditPosts
}

type viewerKey struct{}

// WithViewer returns a context carrying v for shortcode rendering.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFromContext returns the viewer stored by WithViewer, or a guest.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerKey{}).(Viewer)
	return v
}
