package tasks

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/asynqro/internal/spinlock"
	"go.uber.org/automaxprocs/maxprocs"
)

// defaultIdleLoopsAmount is the number of empty inbox polls a worker spins
// through before parking on its condition variable.
const defaultIdleLoopsAmount = 1000

func init() {
	// Correct runtime.GOMAXPROCS for cgroup/container CPU quotas before
	// this package's default Intensive capacity is computed from it.
	// Errors are intentionally swallowed: on a platform automaxprocs
	// doesn't recognize, GOMAXPROCS is left exactly as Go itself set it.
	_, _ = maxprocs.Set()
}

// dispatcherState is the single-spinlock-protected bookkeeping cell shared
// by every Dispatcher handle: capacities, subpool usage, the worker
// roster, the thread-bound bindings, and the shared task queue (§3).
type dispatcherState struct {
	lock spinlock.SpinLock

	capacity          int
	boundCapacity     int
	intensiveCapacity int

	customTagCapacities map[int32]int
	subPoolsUsage       map[subPoolKey]int

	workers             []*worker
	availableWorkers    map[int]struct{}
	tagToWorkerBindings map[int32]int
	workerBindingsCount map[int]int

	tasksQueue *taskList

	instantUsage    int64 // atomic
	idleLoopsAmount int64 // atomic
}

// Dispatcher is a capacity-bounded task dispatcher: submitted callables are
// classified by TaskType, prioritized by TaskPriority, and run on a pool of
// workers that grows lazily up to a configurable capacity.
type Dispatcher struct {
	s *dispatcherState
}

var (
	instance     *Dispatcher
	instanceOnce sync.Once
)

// Instance returns the process-wide Dispatcher singleton, constructing it
// on first use.
func Instance() *Dispatcher {
	instanceOnce.Do(func() {
		instance = NewDispatcher()
	})
	return instance
}

// NewDispatcher constructs an independent Dispatcher, useful for tests and
// for embedding more than one dispatcher in a single process.
func NewDispatcher() *Dispatcher {
	ic := intensiveCapacityDefault()
	s := &dispatcherState{
		capacity:            ic,
		boundCapacity:       ic,
		intensiveCapacity:   ic,
		customTagCapacities: make(map[int32]int),
		subPoolsUsage:       make(map[subPoolKey]int),
		availableWorkers:    make(map[int]struct{}),
		tagToWorkerBindings: make(map[int32]int),
		workerBindingsCount: make(map[int]int),
		tasksQueue:          newTaskList(),
	}
	atomic.StoreInt64(&s.idleLoopsAmount, defaultIdleLoopsAmount)
	return &Dispatcher{s: s}
}

func intensiveCapacityDefault() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// Insert submits td for execution. ThreadBound tasks with a known tag go
// straight to their bound worker's inbox; otherwise td is either handed
// directly to an idle worker (if one is available, the shared queue is
// empty, and the subpool has room) or queued and a schedule pass is
// triggered.
func (d *Dispatcher) Insert(td TaskDescriptor) {
	d.s.insert(td)
}

func (d *dispatcherState) insert(td TaskDescriptor) {
	td.Tag = normalizeTag(td.Type, td.Tag)

	if td.Type == ThreadBound {
		d.lock.Lock()
		wid, bound := d.tagToWorkerBindings[td.Tag]
		d.lock.Unlock()
		if bound {
			atomic.AddInt64(&d.instantUsage, 1)
			d.workers[wid].addTask(td)
			return
		}
		d.lock.Lock()
		d.tasksQueue.Insert(td)
		d.lock.Unlock()
		d.schedule(-1)
		return
	}

	d.lock.Lock()
	if len(d.availableWorkers) > 0 && d.tasksQueue.Len() == 0 && d.hasCapacityLocked(td.Type, td.Tag) {
		target := d.anyAvailableLocked()
		delete(d.availableWorkers, target)
		d.incUsageLocked(td.Type, td.Tag)
		d.lock.Unlock()

		atomic.AddInt64(&d.instantUsage, 1)
		d.workers[target].addTask(td)
		return
	}
	d.tasksQueue.Insert(td)
	d.lock.Unlock()
	d.schedule(-1)
}

type dispatchAction struct {
	workerID int
	td       TaskDescriptor
}

// schedule picks a target worker (hint if idle, else any idle worker, else
// a freshly spawned one up to capacity), then walks the shared queue in
// priority+FIFO order: every ThreadBound task at the head of the scan is
// resolved to its (possibly new) binding and dispatched immediately,
// without consuming target; the first dispatchable Custom/Intensive task
// is handed to target and the scan stops.
func (d *dispatcherState) schedule(hint int) {
	d.lock.Lock()

	target := d.ensureWorkerLocked(hint)

	var actions []dispatchAction
	dispatchedNonBound := false

	cur := d.tasksQueue.Cursor()
	for !cur.Done() {
		td := cur.Task()

		if td.Type == ThreadBound {
			wid := d.resolveBindingLocked(td.Tag, target)
			if wid < 0 {
				cur.Next()
				continue
			}
			removed := cur.Remove()
			actions = append(actions, dispatchAction{wid, removed})
			atomic.AddInt64(&d.instantUsage, 1)
			continue
		}

		if dispatchedNonBound || target < 0 {
			cur.Next()
			continue
		}

		if d.hasCapacityLocked(td.Type, td.Tag) {
			d.incUsageLocked(td.Type, td.Tag)
			delete(d.availableWorkers, target)
			removed := cur.Remove()
			actions = append(actions, dispatchAction{target, removed})
			atomic.AddInt64(&d.instantUsage, 1)
			dispatchedNonBound = true
			continue
		}
		cur.Next()
	}

	d.lock.Unlock()

	for _, a := range actions {
		d.workers[a.workerID].addTask(a.td)
	}
}

// taskFinished reports that finished just completed on workerID. It
// releases finished's subpool capacity and, if the worker is asking for
// more work, marks it available and triggers a schedule pass hinted at it.
func (d *dispatcherState) taskFinished(workerID int, finished TaskDescriptor, askingForNext bool) {
	d.lock.Lock()
	if finished.Type != ThreadBound {
		d.decUsageLocked(finished.Type, finished.Tag)
	}
	if askingForNext {
		d.availableWorkers[workerID] = struct{}{}
	}
	d.lock.Unlock()

	if askingForNext {
		d.schedule(workerID)
	}
}

// ensureWorkerLocked returns an idle worker to target a non-bound
// dispatch at: hint if it is idle, else any idle worker, else a freshly
// spawned one (up to capacity, registered as idle immediately so it may
// be claimed by this same scan), else -1.
func (d *dispatcherState) ensureWorkerLocked(hint int) int {
	if hint >= 0 {
		if _, ok := d.availableWorkers[hint]; ok {
			return hint
		}
	}
	if wid := d.anyAvailableLocked(); wid >= 0 {
		return wid
	}
	if len(d.workers) < d.capacity {
		wid := len(d.workers)
		w := newWorker(wid, d, atomic.LoadInt64(&d.idleLoopsAmount))
		d.workers = append(d.workers, w)
		d.availableWorkers[wid] = struct{}{}
		logWorkerSpawned(wid)
		return wid
	}
	return -1
}

func (d *dispatcherState) anyAvailableLocked() int {
	for wid := range d.availableWorkers {
		return wid
	}
	return -1
}

// resolveBindingLocked implements the thread-bound binding policy (§4.5.1).
func (d *dispatcherState) resolveBindingLocked(tag int32, hint int) int {
	if wid, ok := d.tagToWorkerBindings[tag]; ok {
		return wid
	}

	if len(d.workerBindingsCount) < d.boundCapacity {
		for wid := range d.availableWorkers {
			if d.workerBindingsCount[wid] == 0 {
				d.bindLocked(tag, wid)
				return wid
			}
		}
		if hint >= 0 && d.workerBindingsCount[hint] == 0 {
			d.bindLocked(tag, hint)
			return hint
		}
		wid := hint
		if wid < 0 {
			wid = d.ensureWorkerLocked(-1)
		}
		if wid < 0 {
			return -1
		}
		d.bindLocked(tag, wid)
		return wid
	}

	best := -1
	bestCount := math.MaxInt
	for wid := range d.availableWorkers {
		if c := d.workerBindingsCount[wid]; best < 0 || c < bestCount {
			best, bestCount = wid, c
		}
	}
	if best < 0 {
		if hint >= 0 {
			best = hint
		} else if len(d.workers) > 0 {
			best = 0
		}
	}
	if best < 0 {
		return -1
	}
	d.bindLocked(tag, best)
	return best
}

func (d *dispatcherState) bindLocked(tag int32, wid int) {
	d.tagToWorkerBindings[tag] = wid
	d.workerBindingsCount[wid]++
}

func (d *dispatcherState) hasCapacityLocked(typ TaskType, tag int32) bool {
	return d.subPoolsUsage[subPoolKey{typ, tag}] < d.subPoolCapacityLocked(typ, tag)
}

func (d *dispatcherState) subPoolCapacityLocked(typ TaskType, tag int32) int {
	switch typ {
	case Intensive:
		return d.intensiveCapacity
	case Custom:
		if tag == 0 {
			return d.capacity
		}
		if c, ok := d.customTagCapacities[tag]; ok {
			return c
		}
		return d.intensiveCapacity
	case ThreadBound:
		return d.boundCapacity
	default:
		return d.capacity
	}
}

func (d *dispatcherState) incUsageLocked(typ TaskType, tag int32) {
	d.subPoolsUsage[subPoolKey{typ, tag}]++
}

func (d *dispatcherState) decUsageLocked(typ TaskType, tag int32) {
	key := subPoolKey{typ, tag}
	if d.subPoolsUsage[key] > 0 {
		d.subPoolsUsage[key]--
	}
}

// SetCapacity grows the dispatcher's total worker capacity. It is clamped
// to never fall below max(Intensive capacity, the number of workers
// already spawned): capacity may only grow or stay, never shrink below
// committed state.
func (d *Dispatcher) SetCapacity(n int) {
	d.s.lock.Lock()
	min := d.s.intensiveCapacity
	if len(d.s.workers) > min {
		min = len(d.s.workers)
	}
	if n < min {
		n = min
	}
	if n < d.s.capacity {
		n = d.s.capacity
	}
	d.s.capacity = n
	d.s.lock.Unlock()
	logCapacityChange(`capacity`, n)
}

// SetBoundCapacity grows the maximum number of workers that may host a
// ThreadBound binding, clamped to never fall below the number of workers
// that already host one.
func (d *Dispatcher) SetBoundCapacity(n int) {
	d.s.lock.Lock()
	min := len(d.s.workerBindingsCount)
	if n < min {
		n = min
	}
	if n < d.s.boundCapacity {
		n = d.s.boundCapacity
	}
	d.s.boundCapacity = n
	d.s.lock.Unlock()
	logCapacityChange(`boundCapacity`, n)
}

// SetIdleLoopsAmount updates the idle-spin budget used by every existing
// and future worker before it parks.
func (d *Dispatcher) SetIdleLoopsAmount(n int64) {
	atomic.StoreInt64(&d.s.idleLoopsAmount, n)
	d.s.lock.Lock()
	workers := append([]*worker(nil), d.s.workers...)
	d.s.lock.Unlock()
	for _, w := range workers {
		w.parker.SetIdleLoopsAmount(n)
	}
}

// AddCustomTag registers a capacity for a Custom-type tag, clamped into
// [1, total capacity].
func (d *Dispatcher) AddCustomTag(tag int32, capacity int) {
	d.s.lock.Lock()
	if capacity < 1 {
		capacity = 1
	}
	if capacity > d.s.capacity {
		capacity = d.s.capacity
	}
	d.s.customTagCapacities[tag] = capacity
	d.s.lock.Unlock()
}

// SubPoolCapacity reports the effective capacity for (typ, tag).
func (d *Dispatcher) SubPoolCapacity(typ TaskType, tag int32) int {
	d.s.lock.Lock()
	defer d.s.lock.Unlock()
	return d.s.subPoolCapacityLocked(typ, normalizeTag(typ, tag))
}

// PreHeatPool eagerly spawns workers up to round(amount*capacity); amount
// outside [0,1] is silently clamped.
func (d *Dispatcher) PreHeatPool(amount float64) {
	if amount < 0 {
		amount = 0
	} else if amount > 1 {
		amount = 1
	}
	d.s.lock.Lock()
	target := int(math.Round(amount * float64(d.s.capacity)))
	d.spawnUpToLocked(target)
	d.s.lock.Unlock()
}

// PreHeatIntensivePool eagerly spawns workers up to the Intensive capacity.
func (d *Dispatcher) PreHeatIntensivePool() {
	d.s.lock.Lock()
	d.spawnUpToLocked(d.s.intensiveCapacity)
	d.s.lock.Unlock()
}

func (d *Dispatcher) spawnUpToLocked(target int) {
	for len(d.s.workers) < target && len(d.s.workers) < d.s.capacity {
		wid := len(d.s.workers)
		w := newWorker(wid, d.s, atomic.LoadInt64(&d.s.idleLoopsAmount))
		d.s.workers = append(d.s.workers, w)
		d.s.availableWorkers[wid] = struct{}{}
		logWorkerSpawned(wid)
	}
}

// InstantUsage returns the number of tasks currently in a worker's inbox
// or executing.
func (d *Dispatcher) InstantUsage() int64 {
	return atomic.LoadInt64(&d.s.instantUsage)
}

// WorkerCount reports how many workers have been spawned so far.
func (d *Dispatcher) WorkerCount() int {
	d.s.lock.Lock()
	defer d.s.lock.Unlock()
	return len(d.s.workers)
}

// Shutdown poisons every spawned worker so each exits once its inbox next
// drains, mirroring the original dispatcher's destructor. It does not wait
// for in-flight or queued tasks to finish; it only stops workers from
// parking again once idle. Shutdown is not required before a process
// exits — it exists for tests and embedders that construct short-lived
// Dispatchers via NewDispatcher and want to release worker goroutines
// deterministically.
func (d *Dispatcher) Shutdown() {
	d.s.lock.Lock()
	workers := append([]*worker(nil), d.s.workers...)
	d.s.lock.Unlock()
	for _, w := range workers {
		w.poison()
	}
}
