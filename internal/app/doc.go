// Package app wires the layout loader, the rendezvous resolver, the shared
// secret and the environment injector into one prelaunch run, decoupled from
// any specific entrypoint like a CLI.
package app
