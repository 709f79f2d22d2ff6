// Package docs CivicLens Municipal Complaints API.
//
// Documentation of the CivicLens civic complaints API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://api.civiclens.example.org
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/civiclens/civic-complaints-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/complaints/{complaint_id} complaints complaintByID
// Gets a single complaint by ID.
// responses:
//   200: complaintByIDResponse

// Shows a single complaint by the given {complaint_id}
// swagger:response complaintByIDResponse
type complaintByIDResponseWrapper struct {
	// in:body
	Body models.PopulatedComplaint
}

// swagger:route GET /api/v1/complaints/stats complaints complaintStats
// Aggregated complaint statistics scoped to the caller's role.
// responses:
//   200: complaintStatsResponse

// Complaint totals broken down by status, category and month.
// swagger:response complaintStatsResponse
type complaintStatsResponseWrapper struct {
	// in:body
	Body models.ComplaintStats
}
