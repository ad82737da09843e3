// Package drapto wraps the Drapto library's crop detection so generated
// clips can be checked for baked-in letterboxing before assembly.
//
// A Veo clip rendered at the wrong aspect ratio usually arrives with black
// bars; crop detection surfaces that in `vidforge inspect --crop` and lets
// operators decide whether to regenerate the scene.
package drapto
