// Package flashdeck implements a flashcard study web application: user
// accounts with token-based authentication, flashcard sets and cards,
// friendships, and set view analytics, backed by Bun repositories.
//
// Authentication:
//   - Passwords are hashed with Argon2id over password+pepper and a fresh
//     256-bit salt per credential. The pepper is process-wide configuration
//     and is never persisted next to a credential.
//   - TokenService issues and validates HS256 JWTs carrying the subject id,
//     username, email, and the user role under both the "role" claim and the
//     legacy "UserType" claim. A token is either valid or invalid; there is
//     no server-side revocation list, tokens die by expiry.
//   - middleware/tokenware resolves the bearer token from the Authorization
//     header, the auth cookie, or a query parameter (in that priority) and
//     enforces per-route access policies (public, registered, admin only).
//
// Everything else is data plumbing: controllers map HTTP verbs onto the
// repositories exposed by RepositoryManager, and ownership rules (only the
// owner or an admin may mutate a set) live in the handlers, which consume
// the identity the gate resolved.
package flashdeck
