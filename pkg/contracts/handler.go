// Package contracts holds the interfaces pkg/app accepts from the catalog,
// bookings, and tenancies services.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a service's routes on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
