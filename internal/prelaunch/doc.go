// Package prelaunch prepares the environments of the worker tasks of one
// job step.
//
// A Step is created per job step by each process that launches tasks,
// usually one per node. The rendezvous endpoint and the shared secret are
// produced once per Step, the first time any task asks for them, and every
// task prepared from the Step receives identical values. Failure of either
// is final for the Step: no task environment is produced.
package prelaunch
