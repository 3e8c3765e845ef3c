// Package preferences exposes any model.DataModel over HTTP.
//
// # HTTP Endpoints
//
//   - GET /users?limit=N : Lists users with their preferences (default 100).
//   - GET /users/:id : Returns one user.
//   - PUT /users/:user/preferences/:item : Sets a preference from {"value": n}.
//   - DELETE /users/:user/preferences/:item : Removes a preference.
//   - GET /items?limit=N : Lists items.
//   - GET /items/:id : Returns one item (supports ?assume_exists=true).
//   - GET /items/:id/preferences : Lists the preferences for an item by user.
//   - GET /stats : Counts users and items.
//   - POST /refresh : Asks the model to reload.
//
// Model errors map to status codes: not found 404, invalid argument 400,
// unsupported 405, backend failure 502, anything else 500.
package preferences
