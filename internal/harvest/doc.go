// Package harvest implements the source-side tooling: a scraper for the
// announcements listing table and a poller for the per-date offerings grid.
//
// Both talk to a DotNetNuke portal that predates any API: the listing page
// is plain server-rendered HTML, while the offerings grid refreshes through
// Ext.NET direct events (an ASP.NET postback carrying a JSON config, with
// the reply's payload embedded in a textarea as a JS object literal).
//
// The harvested files feed the correction pipeline's source side; nothing
// here touches the engine's state snapshot.
package harvest
