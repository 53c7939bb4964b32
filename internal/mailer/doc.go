// Package mailer delivers verification codes over email.
//
// # Components
//
//   - [Mailer] — the delivery interface; [SMTPMailer] is the gomail-backed
//     production implementation.
//   - [Dispatcher] — bounded async queue with a single delivery worker.
//
// Delivery is best-effort. The dispatcher drops on a full queue and counts
// drops and failures; callers read the counters, they are never blocked or
// failed by mail trouble.
//
// # What this package must NOT do
//
//   - See anything but the finished message. Codes arrive already rendered
//     into the body; this package never touches hashing or storage.
//   - Block an enqueue caller.
package mailer
