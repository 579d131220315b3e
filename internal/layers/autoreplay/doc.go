// Package autoreplay is the input record/replay layer.
//
// In record mode live input entering the host (SceneQueueEvent) is held
// back and queued into the sync timer bound to the current frame. The next
// update drains it into the host's event queue, the event processor
// interceptor rewrites its timestamp to frame x 16ms and appends it to the
// record log.
//
// In replay mode the log named by replaySimFilePath is loaded into the
// sync timer when the host initializes, and every update drains the
// payloads whose frame has been reached. With terminateOnFinish set the
// host is asked to quit at the start of the first update that finds the
// queue empty.
//
// In both modes updates run with a fixed 16ms timestep so recorded and
// replayed sessions advance identically. PostRender optionally captures
// frames, either every captureInterval frames or at the frames listed in
// captureFrames, to "<capturePrefix>_<frame>.png".
//
// The layer reads autoreplay_layer.json through the runtime's config
// loader. A missing file leaves the layer in ModeNone.
package autoreplay
