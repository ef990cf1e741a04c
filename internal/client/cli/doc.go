// Package cli provides the interactive blog client.
//
// It is a read–eval–print loop over the content service. Readers browse the
// latest posts, categories and single articles; after logging in as a store
// superuser the admin commands list every article and open the article
// editor, which wraps the content buffer with markup snippets, uploads
// images and keeps a cover image draft until the article is saved.
//
// Public pages go through content.Soft, so a failed request prints an empty
// page instead of an error. Admin writes use the typed service and report
// what went wrong.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
