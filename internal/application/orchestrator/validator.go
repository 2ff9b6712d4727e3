package orchestrator

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/aescanero/plexo/pkg/plugin"
	"github.com/aescanero/plexo/pkg/ports"
)

// UnsatisfiedDependencyError is returned when a plugin's declared
// runtime dependencies cannot be resolved. It aborts scheduling of
// every plugin not yet launched in the same run call.
type UnsatisfiedDependencyError struct {
	Plugin  string
	Missing []string
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("plugin %s has unsatisfied dependencies: %s (install them and run again)",
		e.Plugin, strings.Join(e.Missing, ", "))
}

// Validator gate-checks plugin descriptors before launch: every
// declared external runtime dependency must be resolvable.
type Validator struct {
	resolver ports.Resolver
	metrics  ports.MetricsCollector
}

// NewValidator creates a dependency validator backed by the given
// resolver.
func NewValidator(resolver ports.Resolver, metrics ports.MetricsCollector) *Validator {
	return &Validator{resolver: resolver, metrics: metrics}
}

// Check resolves each dependency declared by the descriptor. It
// returns nil when all resolve, or an *UnsatisfiedDependencyError
// enumerating the unresolved identifiers.
func (v *Validator) Check(d plugin.Descriptor) error {
	var missing []string
	for _, dep := range d.Dependencies {
		if err := v.resolver.Resolve(dep); err != nil {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		v.metrics.RecordDependencyCheck("unsatisfied")
		return &UnsatisfiedDependencyError{Plugin: d.Name, Missing: missing}
	}

	v.metrics.RecordDependencyCheck("satisfied")
	return nil
}

// ExecResolver resolves dependency identifiers as runtime executables
// via PATH lookup. Successful resolutions are cached, so a dependency
// resolved once stays resolved for all subsequent checks.
type ExecResolver struct {
	mu       sync.Mutex
	resolved map[string]string
}

// NewExecResolver creates a PATH-backed dependency resolver.
func NewExecResolver() *ExecResolver {
	return &ExecResolver{resolved: make(map[string]string)}
}

// Resolve looks up the dependency on PATH. Failures are purely local;
// no install action is taken.
func (r *ExecResolver) Resolve(dependency string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.resolved[dependency]; ok {
		return nil
	}

	path, err := exec.LookPath(dependency)
	if err != nil {
		return fmt.Errorf("dependency not loadable: %s: %w", dependency, err)
	}

	r.resolved[dependency] = path
	return nil
}
