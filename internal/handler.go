package internal

// Handler declares routes on a router.
//
// Example:
//
//	type UserHandler struct {
//	    repo *repository.Users
//	}
//
//	func (h *UserHandler) Routes(r relay.Router) {
//	    r.GET("/users/:id", h.show)
//	    r.POST("/users", h.create)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// It receives a Context and returns an error.
// Returning a non-nil error triggers the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Code before the call to next runs on the way in, code after next
// runs on the way out. A middleware that never calls next terminates
// the chain without reaching the handler or later middleware.
//
// Example:
//
//	func Auth(next relay.HandlerFunc) relay.HandlerFunc {
//	    return func(c relay.Context) error {
//	        if !isAuthenticated(c) {
//	            return c.Redirect(http.StatusFound, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers and middleware.
type ErrorHandler func(Context, error) error
