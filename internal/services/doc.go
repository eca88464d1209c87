// Package services implements the external collaborators of a sync run.
//
// # Reader
//
// [ReaderService] pages through the Readwise Reader list endpoint. Requests carry
// `Authorization: Token <key>` via an [oauth2.Transport] over a static token, and are paced
// by a [rate.Limiter]. There is no retry: a 429 becomes [*shared.RateLimitError] and any
// other non-success status becomes [*shared.StatusError].
//
// # Articles
//
// [ArticleFetcher] retrieves a document's source resource and reports its content type.
// Webpages are turned into PDFs by a [PageRenderer]:
//   - [PercollateRenderer] runs the percollate CLI and streams its output into the logger
//   - [ChromeRenderer] drives headless Chrome with chromedp and prints the page
//
// # Printing
//
// [CUPSService] enumerates queues with lpstat and submits files with lp.
//
// # Error Handling
//
// Services wrap the sentinels from the shared package:
//   - [shared.ErrRateLimited], [shared.ErrSourceUnavailable] : list fetch failed
//   - [shared.ErrResourceUnavailable] : source resource could not be retrieved
//   - [shared.ErrConversionFailed] : renderer failed
//   - [shared.ErrPrintFailed] : lp rejected the job
//   - [shared.ErrPrinterNotFound] : no queue with the requested name
package services
