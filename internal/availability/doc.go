// Package availability finds zero-fare loyalty seats over a departure window.
//
// The journey search only returns a page of proposals from a given outward
// instant, so a window is covered by requesting successive pages, each one
// starting at the last departure of the previous page. Paging stops once a
// page is empty, reaches the end of the window, or makes no progress.
//
// Journeys qualify when they are sellable, priced at exactly zero and depart
// no later than the end of the window. Their Europe/Paris departure hours are
// returned once each.
package availability
