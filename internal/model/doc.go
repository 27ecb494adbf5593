// Package model defines the core data structures shared by the codec,
// the rewriter and the batch runner.
//
// # AudioFile
//
// AudioFile describes one candidate file found under the batch root:
//
//	file := model.AudioFile{Path: "/music/song.mp3", Kind: model.FrameTagged, Size: 4096}
//
// # TagRegion
//
// A TagRegion is a contiguous byte range holding metadata. Locators return
// regions in ascending offset order and never overlap them:
//
//	regions := []model.TagRegion{{Offset: 0, Length: 2048, Label: "ID3v2.4"}}
//	removed := model.TotalLength(regions) // 2048
//
// # Outcomes and BatchStats
//
// Each processed file ends in exactly one Outcome. BatchStats accumulates
// them sequentially for the whole batch:
//
//	var stats model.BatchStats
//	stats.Add(model.MetadataRemoved)
//	fmt.Println(stats.Removed) // 1
//
// # Errors
//
// Classify maps any error returned by the pipeline onto the error taxonomy
// (InvalidRoot, MalformedContainer, IOFailure, Interrupted).
package model
