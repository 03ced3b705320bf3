// Package antjob turns small user supplied Ant script fragments into a
// complete, transient build file, invokes Ant against it and cleans the
// generated files up afterwards.
// The goal is to make "just run this bit of Ant" a one-shot operation without
// requiring a checked-in build.xml.
package antjob
