package planner

// categoryExtensions is the authoritative type:category -> extension-list
// mapping for the type/filetype key-value predicate.
var categoryExtensions = map[string][]string{
	"image": {
 "jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp", "heic",
 "heif", "svg", "raw", "cr2", "nef", "arw",
	},
	"video": {
 "mp4", "mov", "avi", "mkv", "wmv", "flv", "webm", "m4v", "mpg",
 "mpeg", "3gp",
	},
	"audio": {
 "mp3", "wav", "flac", "aac", "ogg", "wma", "m4a", "aiff", "opus",
	},
	"document": {
 "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf",
 "odt", "ods", "odp", "pages", "numbers", "key",
	},
	"code": {
 "go", "py", "js", "ts", "jsx", "tsx", "java", "c", "cpp", "h",
 "hpp", "rs", "rb", "php", "swift", "kt", "cs", "sh", "html", "css",
 "json", "yaml", "yml", "toml", "sql",
	},
	"archive": {
 "zip", "tar", "gz", "bz2", "xz", "7z", "rar", "tgz", "dmg", "iso",
	},
}
