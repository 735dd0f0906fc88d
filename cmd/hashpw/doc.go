// Command hashpw produces bcrypt hashes for the dashcam viewer's basic
// authentication.
//
// Usage:
//
//	hashpw <command>
//
// Commands:
//
//	hash    Prompt twice for a password and print its bcrypt hash. Set the
//	        printed value as APP_PASSWORD_HASH so the plain password never
//	        has to appear in the server environment.
//
//	verify  Prompt for a password and check it against APP_PASSWORD_HASH.
//
// Passwords are read from the terminal without echo and must be at least
// six characters long.
package main
