// Package deblur runs the image enhancement flow: submit an image to the
// external deblur API, charge the account one credit, and track the job
// until its result is ready.
//
// Credit is charged only after the API accepts the submission, and the
// ledger check runs again inside the store transaction so concurrent
// submissions cannot overdraw past the clamp rules in pkg/credit. Results
// are polled, cached briefly in Redis, and persisted on the job row once
// terminal.
package deblur
