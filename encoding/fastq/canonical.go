package fastq

// CanonicalID canonicalizes a FASTQ read name: the leading '@' of the
// ID line, any whitespace-delimited comment, and any trailing /1, /2
// mate suffix are discarded. The canonical name is what pairs R1 and
// R2 records across files and pipeline stages.
func CanonicalID(id string) string {
	if len(id) > 0 && id[0] == '@' {
		id = id[1:]
	}
	for i := 0; i < len(id); i++ {
		switch id[i] {
		case ' ', '\t', '/':
			return id[:i]
		}
	}
	return id
}
