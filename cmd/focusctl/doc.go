// Command focusctl is the CLI front end for the focusd daemon. It manages the
// daemon process, drives focus sessions over the IPC socket, and browses
// stored session history.
package main
