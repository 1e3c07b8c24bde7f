package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a resource's endpoints. The application registers every handler on one router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
