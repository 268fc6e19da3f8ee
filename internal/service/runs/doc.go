// Package runs selects flow runs by id, tag set, or project/branch pair.
//
// Selection modes, in precedence order:
//   - run id: exactly one run, missing ids fail with repo.ErrNotFound
//   - tags: runs carrying every tag
//   - project + branch: runs tagged project:<project> and project_branch:<branch>
//   - none: no runs
//
// Every query runs in the global namespace so results never depend on a
// namespace configured elsewhere.
package runs
