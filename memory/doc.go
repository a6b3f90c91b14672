// Package memory persists the local view of a chat session.
//
// Persistence model:
//   - The remote thread owns the authoritative history; the file keeps its id
//     so a restarted CLI resumes the same conversation.
//   - Only displayed text is stored (role + text). Tool calls stay remote.
package memory
