// Package host is a simulated frame-driven host application exposing
// interceptable call sites.
//
// Each call site resolves the head of its dispatch chain and either invokes
// the head, passing the node itself first, or runs the base implementation
// when no layer intercepts the symbol. Layers forward with the Next*
// helpers, which run the next node or, at the end of the chain, the base.
//
// Call sites and their symbols:
//
//	Initialize     CoreInitialize
//	Update         CoreUpdate
//	ProcessEvents  EventProcessorProcessEvents
//	QueueEvent     SceneQueueEvent
//	PostRender     SurfaceFrameBufferPostRender
//	AddActor       ActorAdd
//	RemoveActor    ActorRemove
//
// InjectEvent is not interceptable: it places an event straight into the
// event queue and is what the sync timer delivers to.
//
// One frame of Run is Update, ProcessEvents, PostRender. Run stops early
// when Update reports Quit.
package host
