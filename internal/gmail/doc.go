// Package gmail sends mail through the Gmail API on behalf of the
// deployment's Google account.
//
// The client authenticates with the credential held by a
// google.CredentialStore, so the same OAuth grant that creates calendar
// events also covers the gmail.send scope. Messages are passed in already
// rendered as RFC 5322 bytes and uploaded with users.messages.send.
//
// Example usage:
//
//	client := gmail.NewClient(store)
//	id, err := client.Send(ctx, raw)
package gmail
