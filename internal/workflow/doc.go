// Package workflow drives a batch export job through the pipeline.
//
// Manager owns the in-memory job and run state. It guarantees at most one
// run loop per process, processes items strictly in order, persists the full
// job after every item, and stops cooperatively at item boundaries when
// paused. When the last item settles the Reporter builds the summary, sends
// the completion notification if the export finished in the background, and
// clears the persisted job.
//
// Every state change is also published to an EventHub so front ends can
// follow progress without polling the manager.
package workflow
