/*
Package config loads and validates the simulator's run parameters —
cluster size, timing bounds, fault rates, chaos selection — decoded
from a YAML document via gopkg.in/yaml.v3.

Config mirrors the reference manager's Config/DefaultConfig pattern: a
struct of plain fields, a DefaultConfig constructor carrying sane
defaults, and a Validate method a caller runs once after loading or
overriding fields. Validation failures are returned as configuration
errors, never panics — the same error taxonomy pkg/raft and pkg/network
use for everything that is the caller's fault rather than the
protocol's.
*/
package config
