// Package audio locates and removes embedded metadata from audio containers.
//
// # Sniffing
//
// Files are classified by extension before any I/O happens:
//
//	sniffer := audio.NewSniffer(nil) // .mp3 → frame, .m4a/.mp4 → atom
//	kind, ok := sniffer.Sniff(path)
//
// Corroborate optionally confirms the choice from the file's magic bytes.
//
// # Locating
//
// A Locator returns the byte ranges that hold metadata:
//   - FrameTagged: leading ID3v2 tags (stacked tags included), and when
//     StripTrailing is set, ID3v1, ID3v1 enhanced and appended ID3v2 tags
//   - AtomBoxed: "meta" boxes at the top level, in moov, moov/udta and
//     moov/trak/udta
//
// Structural problems are reported as *model.MalformedContainerError.
//
// # Stripping
//
// Strip streams the file to a writer with every region removed:
//
//	scan, err := audio.NewLocator().Locate(sr, kind)
//	if err != nil {
//	    return err
//	}
//	n, err := audio.Strip(tmp, sr, scan)
//
// For AtomBoxed files Strip also shrinks the size of every enclosing box and
// moves stco/co64 chunk offsets so that the audio samples stay addressable.
//
// # Describing
//
// Describe uses github.com/bogem/id3v2 and github.com/dhowden/tag to report
// what is about to be removed (title, artist, frame count, cover art).
package audio
