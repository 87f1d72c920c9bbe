// Command arud submits Arabic poems to the prosody analysis service and
// prints the detected meter and per-verse results.
//
//	arud analyze poem.txt
//	cat poem.txt | arud analyze --format table
//	arud last
//	arud export report -o report.txt
package main
