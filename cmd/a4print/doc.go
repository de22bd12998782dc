// Command a4print exports batches of images as A4 PDF pages.
//
// The export command drives a resumable job: progress is saved after every
// page, an interrupted export is offered for resume on the next run, and
// SIGUSR1/SIGUSR2 move the process between background and foreground so the
// background export setting can pause and resume it.
package main
