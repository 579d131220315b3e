// Package dispatch resolves, per intercepted symbol, the ordered chain of
// competing implementations and answers "what runs after me".
//
// A chain is built lazily the first time a symbol is resolved: every module
// the registry enumerated is asked for the same-named symbol, and each hit
// becomes a Node carrying the function and the index of the layer that owns
// the module (layer.UnknownLayer when the module is not a registered
// layer). Chains are cached for the engine's lifetime and never rebuilt, so
// enabling or disabling a layer later does not reorder them.
//
// CALL PROTOCOL:
//
// The host resolves Head(symbol). A nil head means no layer intercepts the
// symbol and the host runs its base implementation. Otherwise the host
// invokes the head's function, passing the node itself as the first
// argument. An interceptor checks n.Enabled(), does its work, and forwards
// to n.Next(); a nil next means the chain is exhausted and the base
// implementation runs.
//
//	func SceneQueueEvent(self *dispatch.Node, h *host.Host, ev input.TouchEvent) {
//		if self.Enabled() {
//			// layer logic
//		}
//		h.NextQueueEvent(self, ev)
//	}
//
// Thread-safety: Engine and Node are safe for concurrent use. Concurrent
// first resolutions of a symbol build exactly one chain.
package dispatch
