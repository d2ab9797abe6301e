package actor

// Command kinds, used as log and metric labels.
const (
	KindGet       = "get"
	KindSet       = "set"
	KindClear     = "clear"
	KindStartTask = "start_task"
)

// Command is a request for the cache actor. The set of commands is closed;
// use Get, Set, Clear or StartTask.
type Command interface {
	Kind() string
	command()
}

// Get looks up Key and answers through Reply.
type Get struct {
	Key   string
	Reply *Reply[Lookup]
}

// Set inserts or overwrites Key.
type Set struct {
	Key   string
	Value string
}

// Clear removes every key.
type Clear struct{}

// StartTask launches the background task with the given id. The result is
// reported out of band.
type StartTask struct {
	ID uint32
}

// Lookup is the answer to a Get.
type Lookup struct {
	Value string
	Found bool
}

func (Get) Kind() string       { return KindGet }
func (Set) Kind() string       { return KindSet }
func (Clear) Kind() string     { return KindClear }
func (StartTask) Kind() string { return KindStartTask }

func (Get) command()       {}
func (Set) command()       {}
func (Clear) command()     {}
func (StartTask) command() {}
