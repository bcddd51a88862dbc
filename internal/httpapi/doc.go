// Package httpapi exposes a calendar.EventStore over HTTP.
//
// Routes:
//
//	GET     /api/events          all events, ordered by (date, time)
//	GET     /api/events/{date}   events on one date, ordered by time
//	POST    /api/events          create; 201 with the stored event
//	PUT     /api/events/{id}     partial update; 200 with the merged event
//	DELETE  /api/events/{id}     delete; 200 with a confirmation message
//	GET     /api/health          backend status; 500 when degraded
//	OPTIONS /{any}               CORS preflight; 200, empty body
//
// Every response carries permissive CORS headers and an X-Request-ID.
// Errors are JSON objects of the form {"error": "<message>"}.
package httpapi
