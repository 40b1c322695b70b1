// Package audio is an umbrella for the audio sub-packages:
//
//   - pcm: sample formats, L16 conversion and WAV files
//   - resampler: sample-rate conversion of recorded takes
//   - tone: guide-tone synthesis for exercises
package audio
