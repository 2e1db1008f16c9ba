// Package launcher runs the synchronization program the way a cron wrapper script would.
//
// # Sequence
//
// [Launcher.Run] performs these steps in order and stops at the first failure:
//
//  1. resolve the base directory (configured, or the directory of the running executable)
//  2. change the process working directory to it ([ErrDirectory], exit status 1)
//  3. activate the isolated runtime environment ([ErrEnvironment], exit status 2)
//  4. take the single-instance lock ([ErrLocked], exit status 3)
//  5. open the log file for appending ([ErrLogFile], exit status 4)
//  6. run the program with no arguments, stdout and stderr both appended to the log
//
// An empty program is rejected with status 127 after step 3. Nothing is written to the log
// unless steps 1 through 5 succeed.
//
// # Exit Status
//
// Every failure is an [*ExitError]. Once the program has started, its exit
// status becomes the launcher's. Death by signal maps to 128+signal, and a
// program that cannot be started maps to 127 or 126, as a POSIX shell does.
//
// # Scheduling
//
// [Scheduler] repeats the sequence on a cron expression with [github.com/robfig/cron/v3].
package launcher
