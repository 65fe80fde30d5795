// Package http implements the HTTP handlers of the forecast API. Handlers
// are thin: they decode and validate the request, call a service and render
// the result. Every failure goes through the shared errors.ErrorHandler so
// clients always receive RFC 7807 problem details.
//
// # Routes
//
//	POST /api/v1/forecast                 run a forecast
//	GET  /api/v1/models                   registered engines
//	GET  /api/v1/reports                  exported runs
//	GET  /api/v1/reports/{run_id}/{file}  download a report file
//	GET  /api/v1/version                  build information
//	GET  /healthz, /readyz                liveness and readiness
//
// # Handler Structure
//
// Each handler follows this pattern:
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    var req api.Request
//	    if err := h.validator.DecodeJSON(w, r, &req); err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//	    result, err := h.service.DoSomething(r.Context(), req)
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//	    render.JSON(w, r, result)
//	}
package http
